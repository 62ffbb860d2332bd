package repo

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reploy-cli/reploy/internal/config"
)

// DefaultScanDepth is how many directory levels below the root are searched.
const DefaultScanDepth = 3

// IsGitRepo reports whether dir has a .git entry (directory or worktree file).
func IsGitRepo(dir string) bool {
	return exists(filepath.Join(dir, ".git"))
}

// Discover finds git checkouts below root, at most depth levels down. Hidden
// directories are not entered, nor are directories matched by skip, nor the
// inside of a checkout once found. Results are sorted by path.
func Discover(root string, depth int, skip *Filter) ([]config.Repo, error) {
	if depth <= 0 {
		depth = DefaultScanDepth
	}
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	var repos []config.Repo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return fs.SkipDir
		}
		if !d.IsDir() || path == root {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") || name == "node_modules" || skip.Match(name) {
			return fs.SkipDir
		}

		rel, _ := filepath.Rel(root, path)
		level := strings.Count(rel, string(filepath.Separator)) + 1

		if IsGitRepo(path) {
			repos = append(repos, describe(name, path))
			return fs.SkipDir
		}
		if level >= depth {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Path < repos[j].Path })
	return repos, nil
}

// describe classifies a checkout the way the verbs will treat it.
func describe(name, path string) config.Repo {
	r := config.Repo{Name: name, Path: path}

	frontend := IsFrontend(path)
	javaTool := DetectJavaBuildTool(path)
	backend := javaTool != "" || FindSolution(path) != "" || hasCSProj(path)

	switch {
	case frontend && !backend:
		r.Type = config.RepoTypeFrontend
	case backend && !frontend:
		r.Type = config.RepoTypeBackend
	}
	if frontend {
		r.PackageManager = DetectPackageManager(path)
	}
	r.Java.BuildTool = javaTool
	return r
}

func hasCSProj(dir string) bool {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.csproj"))
	return len(matches) > 0
}

// Merge appends discovered repositories whose paths are not already
// registered. It returns the merged list and how many were added.
func Merge(existing, discovered []config.Repo) ([]config.Repo, int) {
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[filepath.Clean(r.Path)] = true
	}

	merged := append([]config.Repo(nil), existing...)
	added := 0
	for _, r := range discovered {
		if seen[filepath.Clean(r.Path)] {
			continue
		}
		seen[filepath.Clean(r.Path)] = true
		merged = append(merged, r)
		added++
	}
	return merged, added
}

// Group is a set of discovered repositories that share a parent directory name.
type Group struct {
	// Name is the workspace name derived from the parent directory.
	Name string
	// Root is the directory above the parent of the group's first repository.
	Root  string
	Repos []config.Repo
}

// GroupByParent splits repos into workspaces named after their parent
// directory. A parent named "workspace" becomes "main". Groups are sorted by
// name and keep the order of repos within each.
func GroupByParent(repos []config.Repo) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range repos {
		parent := filepath.Dir(r.Path)
		name := strings.ToLower(filepath.Base(parent))
		switch name {
		case "workspace":
			name = "main"
		case "", ".", string(filepath.Separator):
			name = "root"
		}

		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name, Root: filepath.Dir(parent)})
		}
		groups[i].Repos = append(groups[i].Repos, r)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}
