package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/pipeline"
	"github.com/reploy-cli/reploy/internal/util"
)

// commandWidth bounds command text in `pipeline show`.
const commandWidth = 72

func newPipelineCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run or inspect pipelines from the config",
	}

	runCmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a pipeline",
		Long: `Run the named pipeline of the active workspace, falling back to the
global pipelines. Names are matched case-insensitively.

Steps run in order. A failing step is reported and the run continues with the
next step.

Exit status is 0 when every step succeeded and 1 when any step failed, after
the list of failed steps is printed. An unknown pipeline exits 1 before any
step runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPipeline(cmd, args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the pipelines available in the active workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.listPipelines()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show the steps of a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.showPipeline(args[0])
		},
	}

	cmd.AddCommand(runCmd, listCmd, showCmd)
	return cmd
}

func (c *cli) runPipeline(cmd *cobra.Command, name string) error {
	ws := c.workspace()
	runner := pipeline.NewRunner(ws, c.executor(), c.pipelineOptions()...)

	report, err := runner.Run(cmd.Context(), name)
	if err != nil {
		if errors.Is(err, errors.ErrPipelineNotFound) {
			if names := pipelineNames(ws); len(names) > 0 {
				fmt.Fprintf(c.errOut, "Available pipelines: %s\n", strings.Join(names, ", "))
			}
		}
		return err
	}

	fmt.Fprint(c.out, c.style.summary(report))
	return report.Err()
}

func (c *cli) listPipelines() error {
	ws := c.workspace()
	pipelines := ws.AllPipelines()
	if len(pipelines) == 0 {
		fmt.Fprintln(c.out, "No pipelines defined.")
		return nil
	}

	names := pipelineNames(ws)
	width := util.MaxWidth(names)
	for _, p := range pipelines {
		line := util.PadANSI(p.Name, width)
		if p.Description != "" {
			line += "  " + c.style.Muted(util.TruncateANSI(p.Description, commandWidth))
		}
		if isGlobal(ws, p) {
			line += "  " + c.style.Muted("(global)")
		}
		fmt.Fprintln(c.out, strings.TrimRight(line, " "))
	}
	return nil
}

func (c *cli) showPipeline(name string) error {
	ws := c.workspace()
	p, ok := ws.FindPipeline(name)
	if !ok {
		return errors.NewNotFoundError("pipeline", name)
	}

	header := p.Name
	if p.Description != "" {
		header += " - " + p.Description
	}
	fmt.Fprintln(c.out, c.style.Title(header))

	for i, step := range p.Steps {
		if step.IsSimple() {
			fmt.Fprintf(c.out, "  %d. %s %s\n", i+1, util.TruncateANSI(step.Run, commandWidth), c.style.Muted("(session)"))
			continue
		}

		label := step.Name
		if step.Parallel {
			label += " (parallel)"
		}
		fmt.Fprintf(c.out, "  %d. %s\n", i+1, label)
		for _, command := range step.Commands {
			fmt.Fprintf(c.out, "     - %s\n", describeCommand(c.style, command, step.OpenSession))
		}
	}
	return nil
}

// describeCommand renders one group command for `pipeline show`.
func describeCommand(s styles, cmd config.Command, groupDefault *bool) string {
	var where []string
	if cmd.Cwd != "" {
		where = append(where, "cwd "+cmd.Cwd)
	} else {
		if cmd.Repo != "" {
			where = append(where, "repo "+cmd.Repo)
		}
		if cmd.Path != "" {
			where = append(where, "path "+cmd.Path)
		}
	}

	text := util.TruncateANSI(cmd.Command, commandWidth)
	if len(where) > 0 {
		text = "[" + strings.Join(where, ", ") + "] " + text
	}

	openSession := groupDefault != nil && *groupDefault
	if cmd.OpenSession != nil {
		openSession = *cmd.OpenSession
	}
	if openSession {
		text += " " + s.Muted("(session)")
	}
	return text
}

func pipelineNames(ws pipeline.Workspace) []string {
	pipelines := ws.AllPipelines()
	names := make([]string, len(pipelines))
	for i, p := range pipelines {
		names[i] = p.Name
	}
	return names
}

func isGlobal(ws pipeline.Workspace, p config.Pipeline) bool {
	_, local := ws.WorkspaceConfig.FindPipeline(p.Name)
	return !local
}
