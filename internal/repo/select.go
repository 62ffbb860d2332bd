package repo

import (
	"context"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sourcegraph/conc/pool"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
)

// Filter matches repository names against glob patterns, case-insensitively.
// A nil Filter matches nothing.
type Filter struct {
	globs []glob.Glob
}

// NewFilter compiles patterns. Plain names match exactly.
func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, errors.NewValidationError("invalid pattern").WithField("ignores").WithValue(p).WithCause(err)
		}
		f.globs = append(f.globs, g)
	}
	return f, nil
}

// Match reports whether name matches any pattern.
func (f *Filter) Match(name string) bool {
	if f == nil {
		return false
	}
	name = strings.ToLower(name)
	for _, g := range f.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Selection is the outcome of picking target repositories.
type Selection struct {
	Repos []config.Repo
	// Ignored lists repositories that matched but are on the ignore list.
	Ignored []string
}

// Select picks the repositories a verb acts on. With all set every
// repository is selected; otherwise pattern names one repository or, when it
// holds glob characters, every repository it matches. Ignored repositories
// are dropped in both cases.
func Select(ws config.WorkspaceConfig, pattern string, all bool) (Selection, error) {
	ignores, err := NewFilter(ws.Ignores)
	if err != nil {
		return Selection{}, err
	}

	var candidates []config.Repo
	switch {
	case all:
		candidates = ws.Repos
	case pattern == "":
		return Selection{}, errors.NewValidationError("specify --repo <name> or --all")
	case strings.ContainsAny(pattern, "*?[{"):
		match, err := NewFilter([]string{pattern})
		if err != nil {
			return Selection{}, err
		}
		for _, r := range ws.Repos {
			if match.Match(r.Name) {
				candidates = append(candidates, r)
			}
		}
		if len(candidates) == 0 {
			return Selection{}, errors.NewNotFoundError("repository", pattern)
		}
	default:
		r, ok := ws.FindRepo(pattern)
		if !ok {
			return Selection{}, errors.NewNotFoundError("repository", pattern)
		}
		candidates = []config.Repo{r}
	}

	var sel Selection
	for _, r := range candidates {
		if ignores.Match(r.Name) {
			sel.Ignored = append(sel.Ignored, r.Name)
			continue
		}
		sel.Repos = append(sel.Repos, r)
	}
	return sel, nil
}

// Result is the outcome of a per-repository operation.
type Result struct {
	Repo config.Repo
	Err  error
}

// Each runs fn for every repository with at most limit running at once, and
// returns the results in input order. A failure never stops the others.
func Each(ctx context.Context, repos []config.Repo, limit int, fn func(context.Context, config.Repo) error) []Result {
	if limit < 1 {
		limit = 1
	}
	results := make([]Result, len(repos))
	p := pool.New().WithMaxGoroutines(limit)
	for i, r := range repos {
		p.Go(func() {
			results[i] = Result{Repo: r, Err: fn(ctx, r)}
		})
	}
	p.Wait()
	return results
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
