package pipeline

import (
	"path/filepath"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
)

// Resolve turns one configured command into an Invocation.
//
// groupDefault is the containing step's openSession setting; the command's
// own setting takes precedence and an unset pair means inline.
//
// The working directory is chosen in this order: an explicit cwd (relative
// values resolve against cwd), the repository directory joined with path,
// path under the workspace root, and finally cwd itself.
//
// A repo that is not registered in ws fails even when an explicit cwd would
// have been used.
func Resolve(cmd config.Command, groupDefault *bool, ws Workspace, cwd string) (Invocation, error) {
	tokens := Split(cmd.Command)
	if len(tokens) == 0 {
		return Invocation{}, errors.NewConfigurationError("command has no executable", errors.ErrEmptyCommand).
			WithRepo(cmd.Repo)
	}

	dir, err := workingDir(cmd, ws, cwd)
	if err != nil {
		return Invocation{}, err
	}

	return Invocation{
		Executable:  tokens[0],
		Args:        tokens[1:],
		Dir:         dir,
		Text:        cmd.Command,
		Self:        IsSelfVerb(tokens[0]),
		OpenSession: effectiveOpenSession(cmd.OpenSession, groupDefault),
	}, nil
}

func workingDir(cmd config.Command, ws Workspace, cwd string) (string, error) {
	var repoDir string
	if cmd.Repo != "" {
		repo, ok := ws.FindRepo(cmd.Repo)
		if !ok {
			return "", errors.NewConfigurationError("cannot resolve command", errors.ErrRepoNotFound).
				WithRepo(cmd.Repo).
				WithCommand(cmd.Command)
		}
		repoDir = under(base(ws.Root, cwd), repo.Path)
	}

	switch {
	case cmd.Cwd != "":
		return under(cwd, cmd.Cwd), nil
	case repoDir != "":
		return under(repoDir, cmd.Path), nil
	case cmd.Path != "":
		return under(base(ws.Root, cwd), cmd.Path), nil
	default:
		return cwd, nil
	}
}

func effectiveOpenSession(command, group *bool) bool {
	if command != nil {
		return *command
	}
	if group != nil {
		return *group
	}
	return false
}

func base(root, cwd string) string {
	if root != "" {
		return root
	}
	return cwd
}

// under joins p onto dir unless p is already absolute.
func under(dir, p string) string {
	if p == "" {
		return dir
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}
