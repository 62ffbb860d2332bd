package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/repo"
)

// initWorkspaces are created by `init` when nothing is scanned.
var initWorkspaces = []string{"develop", "release"}

func newInitCmd(c *cli) *cobra.Command {
	var (
		output  string
		root    string
		depth   int
		force   bool
		exclude []string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file, optionally from scanned repositories",
		Long: `Create a reploy config file. The format follows the file extension
(.json, .yaml or .yml).

Without --root the config holds empty develop and release workspaces rooted
at the current directory. With --root the directory is scanned for git
repositories, which are grouped into one workspace per parent directory.

An existing file is only replaced with --force.`,
		Args: cobra.NoArgs,
		// The config being created may not exist yet.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.setOutput(cmd)
			return nil
		},
		RunE: func(*cobra.Command, []string) error {
			path := output
			if !filepath.IsAbs(path) {
				path = filepath.Join(c.dir, path)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.NewValidationError("config file already exists, use --force to replace it").
					WithValue(path)
			}

			doc := config.NewDocument(path)
			if root == "" {
				if err := initEmpty(doc, c.dir); err != nil {
					return err
				}
				if err := doc.Save(); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Initialized empty reploy config: %s\n", path)
				fmt.Fprintln(c.out, "Created workspaces: develop, release")
				fmt.Fprintln(c.out, "Use 'reploy scan --write' to add repositories from the current directory")
				return nil
			}

			abs := root
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(c.dir, abs)
			}
			skip, err := repo.NewFilter(exclude)
			if err != nil {
				return err
			}
			found, err := repo.Discover(abs, depth, skip)
			if err != nil {
				return errors.NewNotFoundError("scan root", abs).WithCause(err)
			}

			groups := repo.GroupByParent(found)
			if err := initScanned(doc, groups, c.dir); err != nil {
				return err
			}
			if err := doc.Save(); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Auto-discovery completed!")
			fmt.Fprintf(c.out, "Found %d repositories\n", len(found))
			fmt.Fprintf(c.out, "Created %d workspaces\n", len(groups))
			fmt.Fprintf(c.out, "Config written: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", config.FileNames[0], "config file to write")
	cmd.Flags().StringVarP(&root, "root", "r", "", "scan this directory for repositories")
	cmd.Flags().IntVarP(&depth, "depth", "d", repo.DefaultScanDepth, "maximum directory depth when scanning")
	cmd.Flags().StringSliceVarP(&exclude, "exclude", "x", nil, "glob patterns of directory names to skip")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing config file")
	return cmd
}

func initEmpty(doc *config.Document, dir string) error {
	if err := doc.Set("", "defaultWorkspace", initWorkspaces[0]); err != nil {
		return err
	}
	for _, name := range initWorkspaces {
		if err := setWorkspace(doc, name, dir, nil); err != nil {
			return err
		}
	}
	return nil
}

func initScanned(doc *config.Document, groups []repo.Group, dir string) error {
	if len(groups) == 0 {
		return initEmpty(doc, dir)
	}

	def := groups[0].Name
	for _, g := range groups {
		if g.Name == initWorkspaces[0] {
			def = g.Name
		}
	}
	if err := doc.Set("", "defaultWorkspace", def); err != nil {
		return err
	}
	for _, g := range groups {
		repos := make([]config.Repo, len(g.Repos))
		for i, r := range g.Repos {
			r.Path = relativeTo(g.Root, r.Path)
			repos[i] = r
		}
		if err := setWorkspace(doc, g.Name, g.Root, repos); err != nil {
			return err
		}
	}
	return nil
}

func setWorkspace(doc *config.Document, name, root string, repos []config.Repo) error {
	if repos == nil {
		repos = []config.Repo{}
	}
	for _, kv := range []struct {
		key   string
		value any
	}{
		{"workspace", root},
		{"concurrency", config.DefaultConcurrency},
		{"repos", repos},
		{"ignores", []string{}},
		{"pipelines", []config.Pipeline{}},
	} {
		if err := doc.Set(name, kv.key, kv.value); err != nil {
			return err
		}
	}
	return nil
}
