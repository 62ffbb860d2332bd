package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/repo"
)

func newScanCmd(c *cli) *cobra.Command {
	var (
		root    string
		depth   int
		write   bool
		exclude []string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a directory for git repositories",
		Long: `Scan a directory for git repositories, at most --depth levels down.
Hidden directories and node_modules are not searched, nor are checkouts
themselves once found.

With --write, repositories whose paths are not registered yet are appended
to the active workspace's repos in the config file. Paths under the
workspace root are written relative to it.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if root == "" {
				root = c.dir
			}
			abs, err := filepath.Abs(root)
			if err != nil {
				return errors.Wrapf(err, "resolving scan root %s", root)
			}
			skip, err := repo.NewFilter(exclude)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "Scanning: %s\n", abs)
			found, err := repo.Discover(abs, depth, skip)
			if err != nil {
				return errors.NewNotFoundError("scan root", abs).WithCause(err)
			}
			if len(found) == 0 {
				fmt.Fprintln(c.out, "No git repositories found.")
				return nil
			}

			fmt.Fprintf(c.out, "Found %d repositories:\n", len(found))
			for _, r := range found {
				fmt.Fprintf(c.out, "- %s  %s\n", r.Name, c.style.Muted(r.Path))
			}

			if write {
				return c.writeScan(found)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&root, "root", "r", "", "directory to scan (default: current directory)")
	cmd.Flags().IntVarP(&depth, "depth", "d", repo.DefaultScanDepth, "maximum directory depth")
	cmd.Flags().BoolVar(&write, "write", false, "add new repositories to the config file")
	cmd.Flags().StringSliceVarP(&exclude, "exclude", "x", nil, "glob patterns of directory names to skip")
	return cmd
}

func (c *cli) writeScan(found []config.Repo) error {
	path, err := c.configPath()
	if err != nil {
		return err
	}
	ws := c.workspace()
	merged, added := repo.Merge(ws.Repos, found)
	if added == 0 {
		fmt.Fprintln(c.out, "All repositories already exist in the workspace.")
		return nil
	}

	doc, err := config.OpenDocument(path)
	if err != nil {
		return err
	}
	fresh := make([]any, 0, added)
	for _, r := range merged[len(merged)-added:] {
		r.Path = relativeTo(ws.Root, r.Path)
		fresh = append(fresh, r)
	}
	if err := doc.Append(ws.Name, "repos", fresh...); err != nil {
		return err
	}
	if err := doc.Save(); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Added %d repositories to %s\n", added, doc.Path())
	return nil
}

// relativeTo rewrites path relative to root when it lies under root.
func relativeTo(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
