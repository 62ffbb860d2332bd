package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/repo"
)

// newGitCmds returns the git verbs: fetch, pull, branch and remote. With
// --all they run against up to `concurrency` repositories at a time.
func newGitCmds(c *cli) []*cobra.Command {
	return []*cobra.Command{
		newFetchCmd(c),
		newPullCmd(c),
		newBranchCmd(c),
		newRemoteCmd(c),
	}
}

func newFetchCmd(c *cli) *cobra.Command {
	var f repoFlags
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch latest refs from remote repositories",
		Long: `Fetch latest refs from remote repositories.

When a repository sets remote.url, origin is pointed at it first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.gitVerb(cmd.Context(), "fetch", f, func(ctx context.Context, r config.Repo) error {
				fmt.Fprintf(c.out, "[fetch][%s] fetching from remote\n", r.Name)
				return c.app.Git.Sync(ctx, r.Path, r.Remote.URL)
			})
		},
	}
	f.register(cmd, "fetch")
	return cmd
}

func newPullCmd(c *cli) *cobra.Command {
	var f repoFlags
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Fetch and fast-forward the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.gitVerb(cmd.Context(), "pull", f, func(ctx context.Context, r config.Repo) error {
				fmt.Fprintf(c.out, "[pull][%s] pulling latest changes\n", r.Name)
				return c.app.Git.Pull(ctx, r.Path, r.Remote.URL)
			})
		},
	}
	f.register(cmd, "pull")
	return cmd
}

func newBranchCmd(c *cli) *cobra.Command {
	var (
		f       repoFlags
		name    string
		develop bool
		release string
	)
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Switch repositories to a branch",
		Long: `Switch repositories to a branch after fetching.

An existing local branch is checked out and pulled from origin. Otherwise a
local branch tracking origin/<branch> is created.

Examples:
  reploy branch -b feature/login -r web
  reploy branch --develop --all
  reploy branch --release 9.0 -r "api-*"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			branch, err := repo.BranchName(name, develop, release)
			if err != nil {
				return err
			}
			return c.gitVerb(cmd.Context(), "branch", f, func(ctx context.Context, r config.Repo) error {
				fmt.Fprintf(c.out, "[branch][%s] switching to %s\n", r.Name, branch)
				return c.app.Git.SwitchBranch(ctx, r.Path, r.Remote.URL, branch)
			})
		},
	}
	f.register(cmd, "switch")
	cmd.Flags().StringVarP(&name, "branch", "b", "", "branch name")
	cmd.Flags().BoolVar(&develop, "develop", false, "switch to develop")
	cmd.Flags().StringVar(&release, "release", "", "switch to release/<version>")
	return cmd
}

func newRemoteCmd(c *cli) *cobra.Command {
	var (
		f   repoFlags
		fix bool
	)
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Check origin URLs against remote.url",
		Long: `Check each repository's origin URL against its configured remote.url.
With --fix, origin is rewritten where they differ.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.gitVerb(cmd.Context(), "remote", f, func(ctx context.Context, r config.Repo) error {
				status, err := c.app.Git.CheckRemote(ctx, r.Path, r.Remote.URL, fix)
				if err != nil {
					return err
				}
				c.reportRemote(r, status)
				return nil
			})
		},
	}
	f.register(cmd, "check")
	cmd.Flags().BoolVar(&fix, "fix", false, "rewrite origin to the configured remote.url")
	return cmd
}

func (c *cli) reportRemote(r config.Repo, status repo.RemoteStatus) {
	prefix := fmt.Sprintf("[remote][%s]", r.Name)
	switch {
	case status.Expected == "":
		fmt.Fprintf(c.out, "%s %s (no remote.url configured)\n", prefix, status.Current)
	case status.Mismatch():
		fmt.Fprintf(c.out, "%s %s: current %s, expected %s (use --fix)\n",
			prefix, c.style.Warning("mismatch"), status.Current, status.Expected)
	case status.Fixed:
		fmt.Fprintf(c.out, "%s %s origin to %s\n", prefix, c.style.Success("updated"), status.Expected)
	default:
		fmt.Fprintf(c.out, "%s %s\n", prefix, c.style.Success("ok"))
	}
}

func (c *cli) gitVerb(ctx context.Context, verb string, f repoFlags, fn func(context.Context, config.Repo) error) error {
	repos, ws, err := c.targets(verb, f)
	if err != nil {
		return err
	}
	return c.eachRepo(ctx, verb, repos, ws.Concurrency, fn)
}
