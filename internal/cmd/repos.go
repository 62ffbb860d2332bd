package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/repo"
)

// repoFlags are the target flags shared by every per-repository verb.
type repoFlags struct {
	repo string
	all  bool
}

func (f *repoFlags) register(cmd *cobra.Command, verb string) {
	cmd.Flags().StringVarP(&f.repo, "repo", "r", "", "repository name or glob pattern")
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, verb+" all configured repos (respects ignores)")
}

// targets selects the repositories for verb in the active workspace.
// Ignored matches are announced and dropped. With --all a repository whose
// path is missing is skipped; otherwise it is an error.
func (c *cli) targets(verb string, f repoFlags) ([]config.Repo, config.WorkspaceConfig, error) {
	ws := c.workspace().WorkspaceConfig
	sel, err := repo.Select(ws, f.repo, f.all)
	if err != nil {
		return nil, ws, err
	}
	for _, name := range sel.Ignored {
		fmt.Fprintf(c.out, "[%s] skipped ignored repo: %s\n", verb, name)
	}

	var repos []config.Repo
	for _, r := range sel.Repos {
		if _, err := os.Stat(r.Path); err != nil {
			if !f.all {
				return nil, ws, errors.NewNotFoundError("repository path", r.Path)
			}
			fmt.Fprintf(c.errOut, "[skip] %s: path not found %s\n", r.Name, r.Path)
			continue
		}
		repos = append(repos, r)
	}
	return repos, ws, nil
}

// eachRepo runs fn for repos, up to limit at a time. A single target's error
// is returned as is. With several targets every failure is printed as it
// happens, the others still run, and a summary error is returned.
func (c *cli) eachRepo(ctx context.Context, verb string, repos []config.Repo, limit int, fn func(context.Context, config.Repo) error) error {
	switch len(repos) {
	case 0:
		fmt.Fprintf(c.out, "[%s] no repositories to process\n", verb)
		return nil
	case 1:
		return fn(ctx, repos[0])
	}

	results := repo.Each(ctx, repos, limit, func(ctx context.Context, r config.Repo) error {
		err := fn(ctx, r)
		if err != nil {
			fmt.Fprintf(c.errOut, "[error][%s][%s] %v\n", verb, r.Name, err)
			c.app.logger.Warn("repository operation failed", "verb", verb, "repo", r.Name, "error", err.Error())
		}
		return err
	})

	if failed := repo.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%s failed for %d of %d repositories", verb, len(failed), len(results))
	}
	return nil
}
