// Package repo implements the repository-level work behind reploy's verbs:
// git plumbing, toolchain detection, repository discovery, and selection of
// target repositories from a workspace.
//
// Git is driven through the git CLI. All commands go through a
// [CommandExecutor] so tests can substitute canned output.
package repo

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/reploy-cli/reploy/internal/errors"
)

// ErrBranchNotFound indicates the requested branch exists neither locally
// nor on origin.
var ErrBranchNotFound = errors.New("branch not found")

// -----------------------------------------------------------------------------
// Command Executor
// -----------------------------------------------------------------------------

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Run executes a command in dir and returns combined output.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// CLICommandExecutor executes commands using os/exec.
type CLICommandExecutor struct{}

// Run executes a command and returns combined output.
func (CLICommandExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// -----------------------------------------------------------------------------
// Git
// -----------------------------------------------------------------------------

// Git runs git commands against repository checkouts.
type Git struct {
	executor CommandExecutor
}

// NewGit creates a Git backed by the git CLI.
func NewGit() *Git {
	return &Git{executor: CLICommandExecutor{}}
}

// NewGitWithExecutor creates a Git with a custom executor.
// This is primarily useful for testing.
func NewGitWithExecutor(executor CommandExecutor) *Git {
	return &Git{executor: executor}
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := g.executor.Run(ctx, dir, "git", args...)
	if err != nil {
		return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// RemoteURL returns the fetch URL of origin.
func (g *Git) RemoteURL(ctx context.Context, dir string) (string, error) {
	return g.run(ctx, dir, "remote", "get-url", "origin")
}

// SetRemoteURL points origin at url.
func (g *Git) SetRemoteURL(ctx context.Context, dir, url string) error {
	_, err := g.run(ctx, dir, "remote", "set-url", "origin", url)
	return err
}

// Fetch fetches all remotes and prunes deleted remote branches.
func (g *Git) Fetch(ctx context.Context, dir string) error {
	_, err := g.run(ctx, dir, "fetch", "--all", "--prune")
	return err
}

// PullFastForward pulls the current branch, refusing to create merge commits.
func (g *Git) PullFastForward(ctx context.Context, dir string) error {
	_, err := g.run(ctx, dir, "pull", "--ff-only")
	return err
}

// CurrentBranch returns the checked-out branch name.
func (g *Git) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return g.run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// HasLocalBranch reports whether refs/heads/<branch> exists.
func (g *Git) HasLocalBranch(ctx context.Context, dir, branch string) (bool, error) {
	out, err := g.run(ctx, dir, "branch", "--list", "--format=%(refname:short)", branch)
	if err != nil {
		return false, err
	}
	return containsLine(out, branch), nil
}

// HasRemoteBranch reports whether origin/<branch> exists.
func (g *Git) HasRemoteBranch(ctx context.Context, dir, branch string) (bool, error) {
	ref := "origin/" + branch
	out, err := g.run(ctx, dir, "branch", "-r", "--list", "--format=%(refname:short)", ref)
	if err != nil {
		return false, err
	}
	return containsLine(out, ref), nil
}

func containsLine(out, want string) bool {
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == want {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Composite operations used by the verbs
// -----------------------------------------------------------------------------

// Sync points origin at remoteURL when it is set, then fetches.
func (g *Git) Sync(ctx context.Context, dir, remoteURL string) error {
	if remoteURL != "" {
		if err := g.SetRemoteURL(ctx, dir, remoteURL); err != nil {
			return err
		}
	}
	return g.Fetch(ctx, dir)
}

// Pull syncs and then fast-forwards the current branch.
func (g *Git) Pull(ctx context.Context, dir, remoteURL string) error {
	if err := g.Sync(ctx, dir, remoteURL); err != nil {
		return err
	}
	return g.PullFastForward(ctx, dir)
}

// SwitchBranch syncs, then checks out branch. An existing local branch is
// checked out and pulled from origin; otherwise a local branch tracking
// origin/<branch> is created. It returns ErrBranchNotFound when neither
// exists.
func (g *Git) SwitchBranch(ctx context.Context, dir, remoteURL, branch string) error {
	if err := g.Sync(ctx, dir, remoteURL); err != nil {
		return err
	}

	local, err := g.HasLocalBranch(ctx, dir, branch)
	if err != nil {
		return err
	}
	if local {
		if _, err := g.run(ctx, dir, "checkout", branch); err != nil {
			return err
		}
		_, err := g.run(ctx, dir, "pull", "origin", branch)
		return err
	}

	remote, err := g.HasRemoteBranch(ctx, dir, branch)
	if err != nil {
		return err
	}
	if !remote {
		return fmt.Errorf("%w: %q on origin", ErrBranchNotFound, branch)
	}
	_, err = g.run(ctx, dir, "checkout", "-b", branch, "origin/"+branch)
	return err
}

// RemoteStatus compares origin's URL with the configured one.
type RemoteStatus struct {
	Current  string
	Expected string
	// Fixed is set when origin was rewritten to Expected.
	Fixed bool
}

// Mismatch reports whether a configured URL differs from origin's.
func (s RemoteStatus) Mismatch() bool {
	return s.Expected != "" && s.Current != s.Expected
}

// CheckRemote reports origin's URL against expected and, when fix is set,
// rewrites origin to expected on mismatch.
func (g *Git) CheckRemote(ctx context.Context, dir, expected string, fix bool) (RemoteStatus, error) {
	current, err := g.RemoteURL(ctx, dir)
	if err != nil {
		return RemoteStatus{}, err
	}
	status := RemoteStatus{Current: current, Expected: expected}
	if fix && status.Mismatch() {
		if err := g.SetRemoteURL(ctx, dir, expected); err != nil {
			return status, err
		}
		status.Current = expected
		status.Fixed = true
	}
	return status, nil
}

// BranchName maps the branch verb's shortcuts to a branch name.
// Precedence: develop, then release, then the explicit name.
func BranchName(explicit string, develop bool, release string) (string, error) {
	switch {
	case develop:
		return "develop", nil
	case release != "":
		return "release/" + release, nil
	case explicit != "":
		return explicit, nil
	default:
		return "", errors.NewValidationError("specify --branch <name>, --develop, or --release <version>")
	}
}
