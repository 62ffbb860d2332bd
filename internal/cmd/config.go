package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reploy-cli/reploy/internal/errors"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the reploy configuration",
		Long: `Inspect the reploy configuration.

Without a subcommand, shows the effective configuration.`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as YAML",
		Long: `Show the effective configuration as YAML: defaults applied, repository
paths made absolute, and shorthand steps expanded.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return c.showConfig()
		},
	}
	cmd.RunE = showCmd.RunE

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if c.app.cfgPath == "" {
				fmt.Fprintln(c.out, "(none - using defaults)")
				return nil
			}
			fmt.Fprintln(c.out, c.app.cfgPath)
			return nil
		},
	}

	cmd.AddCommand(showCmd, pathCmd)
	return cmd
}

func (c *cli) showConfig() error {
	if c.app.cfgPath != "" {
		fmt.Fprintf(c.out, "# Config file: %s\n", c.app.cfgPath)
	} else {
		fmt.Fprintln(c.out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(c.app.cfg)
	if err != nil {
		return errors.Wrap(err, "encoding configuration")
	}
	_, err = c.out.Write(data)
	return err
}
