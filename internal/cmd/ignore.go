package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reploy-cli/reploy/internal/config"
)

func newIgnoreCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage repositories skipped by --all",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List ignored repositories of the active workspace",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			ignores := c.workspace().Ignores
			if len(ignores) == 0 {
				fmt.Fprintln(c.out, "No ignored repositories.")
				return nil
			}
			for _, name := range ignores {
				fmt.Fprintln(c.out, name)
			}
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <name|glob>",
		Short: "Add a repository name or glob to the ignore list",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.editIgnores(func(ignores []string) ([]string, bool) {
				for _, name := range ignores {
					if name == args[0] {
						return ignores, false
					}
				}
				return append(ignores, args[0]), true
			}, "Ignored added: "+args[0])
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <name|glob>",
		Short: "Remove an entry from the ignore list",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.editIgnores(func(ignores []string) ([]string, bool) {
				kept := ignores[:0:0]
				for _, name := range ignores {
					if name != args[0] {
						kept = append(kept, name)
					}
				}
				return kept, len(kept) != len(ignores)
			}, "Ignored removed: "+args[0])
		},
	}

	cmd.AddCommand(listCmd, addCmd, removeCmd)
	return cmd
}

// editIgnores rewrites the active workspace's ignores in the config file.
// edit reports whether it changed anything.
func (c *cli) editIgnores(edit func([]string) ([]string, bool), done string) error {
	path, err := c.configPath()
	if err != nil {
		return err
	}
	doc, err := config.OpenDocument(path)
	if err != nil {
		return err
	}

	ws := c.workspace().Name
	var ignores []string
	if _, err := doc.Get(ws, "ignores", &ignores); err != nil {
		return err
	}
	next, changed := edit(ignores)
	if !changed {
		fmt.Fprintln(c.out, "Ignore list unchanged.")
		return nil
	}
	if err := doc.Set(ws, "ignores", next); err != nil {
		return err
	}
	if err := doc.Save(); err != nil {
		return err
	}

	fmt.Fprintln(c.out, done)
	fmt.Fprintf(c.out, "Config updated: %s\n", doc.Path())
	return nil
}
