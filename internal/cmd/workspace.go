package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
)

const singleWorkspaceNotice = "No named workspaces defined. Using single-workspace mode."

func newWorkspaceCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "List, show or select workspaces",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List configured workspaces",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				cfg := c.app.cfg
				if !cfg.IsMulti() {
					fmt.Fprintln(c.out, singleWorkspaceNotice)
					return nil
				}
				active := c.workspace().Name
				for _, name := range cfg.WorkspaceNames() {
					if name == active {
						fmt.Fprintf(c.out, "* %s\n", c.style.Title(name))
					} else {
						fmt.Fprintf(c.out, "  %s\n", name)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "current",
			Short: "Show the active workspace",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				if !c.app.cfg.IsMulti() {
					fmt.Fprintln(c.out, singleWorkspaceNotice)
					return nil
				}
				fmt.Fprintln(c.out, c.workspace().Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "use <name>",
			Short: "Remember a workspace for later runs",
			Long: `Remember a workspace in the state file. Later runs use it unless
--workspace or REPLOY_WORKSPACE names another one.`,
			Args: cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.useWorkspace(args[0])
			},
		},
		&cobra.Command{
			Use:   "set-default <name>",
			Short: "Set defaultWorkspace in the config file",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.setDefaultWorkspace(args[0])
			},
		},
		&cobra.Command{
			Use:   "move <repo> <workspace>",
			Short: "Move a repository to another workspace in the config file",
			Long: `Move a repository entry to another workspace. A path that is
relative to the old workspace root is rewritten for the new one.`,
			Args: cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.moveRepo(args[0], args[1])
			},
		},
	)
	return cmd
}

// namedWorkspace resolves requested among the configured workspaces.
func (c *cli) namedWorkspace(requested string) (string, config.WorkspaceConfig, error) {
	cfg := c.app.cfg
	if !cfg.IsMulti() {
		return "", config.WorkspaceConfig{}, errors.NewConfigurationError("no named workspaces defined", nil)
	}
	name, ws, ok := cfg.Workspace(requested)
	if !ok {
		fmt.Fprintf(c.errOut, "Available workspaces: %v\n", cfg.WorkspaceNames())
		return "", config.WorkspaceConfig{}, errors.NewNotFoundError("workspace", requested)
	}
	return name, ws, nil
}

func (c *cli) setDefaultWorkspace(requested string) error {
	name, _, err := c.namedWorkspace(requested)
	if err != nil {
		return err
	}
	path, err := c.configPath()
	if err != nil {
		return err
	}
	doc, err := config.OpenDocument(path)
	if err != nil {
		return err
	}
	if err := doc.Set("", "defaultWorkspace", name); err != nil {
		return err
	}
	if err := doc.Save(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "defaultWorkspace updated to '%s' in %s\n", name, doc.Path())
	return nil
}

func (c *cli) moveRepo(repoName, requested string) error {
	to, target, err := c.namedWorkspace(requested)
	if err != nil {
		return err
	}
	cfg := c.app.cfg

	from := ""
	var entry config.Repo
	for _, name := range cfg.WorkspaceNames() {
		ws := cfg.Workspaces[name]
		if r, ok := ws.FindRepo(repoName); ok {
			from, entry = name, r
			break
		}
	}
	if from == "" {
		return errors.NewNotFoundError("repository", repoName)
	}
	if from == to {
		fmt.Fprintf(c.out, "'%s' is already in '%s'\n", entry.Name, to)
		return nil
	}
	if _, clash := target.FindRepo(entry.Name); clash {
		return errors.NewValidationError("workspace already has a repository with this name").
			WithField("workspaces." + to + ".repos").
			WithValue(entry.Name)
	}

	path, err := c.configPath()
	if err != nil {
		return err
	}
	doc, err := config.OpenDocument(path)
	if err != nil {
		return err
	}
	moved, err := doc.MoveRepo(entry.Name, from, to, relativeTo(target.Root, entry.Path))
	if err != nil {
		return err
	}
	if !moved {
		return errors.NewNotFoundError("repository", repoName)
	}
	if err := doc.Save(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Moved '%s' from '%s' to '%s' in %s\n", entry.Name, from, to, doc.Path())
	return nil
}

func (c *cli) useWorkspace(requested string) error {
	name, _, err := c.namedWorkspace(requested)
	if err != nil {
		return err
	}

	state := config.LoadState(c.app.StateDir)
	state.LastWorkspace = name
	if err := config.SaveState(c.app.StateDir, state); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Workspace set to: %s\n", name)
	return nil
}
