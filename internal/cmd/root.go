// Package cmd implements the reploy command tree.
//
// Every invocation builds a fresh tree around a shared *App. Pipeline steps
// that re-enter reploy inline build another tree around the same App, so the
// configuration is loaded once per top-level run.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/pipeline"
	"github.com/reploy-cli/reploy/internal/util"
)

// Version is set at build time.
var Version = "dev"

// Execute runs the root command with os.Args and returns the process exit
// status.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp()
	defer app.Close()

	root := NewRootCmd(app)
	root.SilenceErrors = true
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	reportError(root.ErrOrStderr(), app, err)
	return ExitStatus(err)
}

// ExitStatus maps err to a process exit status. A command that ran attached
// and failed passes its own exit code through.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := errors.ExitCode(err); ok && code > 0 {
		return code
	}
	return 1
}

// reportError prints err colored by severity and records it in the debug log.
func reportError(w io.Writer, app *App, err error) {
	s := newStyles(w)
	label := s.Failure("Error:")
	if errors.GetSeverity(err) < errors.SeverityError {
		label = s.Warning("Error:")
	}
	fmt.Fprintf(w, "%s %v\n", label, err)

	if app.logger == nil {
		return
	}
	// User-facing errors are expected outcomes such as a mistyped name.
	if errors.IsUserFacing(err) {
		app.logger.Warn("command failed", "error", err.Error(), "severity", errors.GetSeverity(err).String())
	} else {
		app.logger.Error("command failed", "error", err.Error(), "severity", errors.GetSeverity(err).String())
	}
}

// NewRootCmd builds the command tree for app, running in the current
// directory.
func NewRootCmd(app *App) *cobra.Command {
	dir, _ := os.Getwd()
	return newRootCmd(app, dir, false)
}

// cli is the per-tree view of an App: the flags of this invocation and the
// directory it runs in.
type cli struct {
	app    *App
	v      *viper.Viper
	dir    string
	out    io.Writer
	errOut io.Writer
	style  styles
}

func newRootCmd(app *App, dir string, nested bool) *cobra.Command {
	c := &cli{app: app, v: viper.New(), dir: dir}

	root := &cobra.Command{
		Use:   "reploy",
		Short: "Workspace repository manager and pipeline runner",
		Long: `Reploy manages a workspace of git repositories and runs named pipelines
of steps against them.

Pipelines are defined in reploy.config.json (or .yaml) and may combine
reploy's own verbs (fetch, pull, install, build, dev, demo, scan, branch)
with arbitrary system commands, inline or in detached sessions.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: nested,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default: ./reploy.config.json or ~/.config/reploy/config.yaml)")
	flags.StringP("workspace", "w", "", "workspace name (e.g. develop, release)")
	_ = c.v.BindPFlag("config", flags.Lookup("config"))
	_ = c.v.BindPFlag("workspace", flags.Lookup("workspace"))
	_ = c.v.BindEnv("config", "REPLOY_CONFIG")
	_ = c.v.BindEnv("workspace", "REPLOY_WORKSPACE")

	root.AddCommand(
		newPipelineCmd(c),
		newWorkspaceCmd(c),
		newConfigCmd(c),
		newSessionCmd(c),
		newScanCmd(c),
		newDemoCmd(c),
		newInitCmd(c),
		newIgnoreCmd(c),
	)
	root.AddCommand(newGitCmds(c)...)
	root.AddCommand(newToolchainCmds(c)...)

	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	c.setOutput(cmd)
	return c.app.load(c.v.GetString("config"), c.out, c.errOut)
}

func (c *cli) setOutput(cmd *cobra.Command) {
	c.out = util.NewSyncWriter(cmd.OutOrStdout())
	c.errOut = util.NewSyncWriter(cmd.ErrOrStderr())
	c.style = newStyles(cmd.OutOrStdout())
}

// configPath returns the loaded config file, which commands that edit the
// configuration require.
func (c *cli) configPath() (string, error) {
	if c.app.cfgPath == "" {
		return "", errors.NewNotFoundError("config file", "reploy.config.json").
			WithCause(errors.New("run `reploy init` to create one"))
	}
	return c.app.cfgPath, nil
}

// Dispatch implements pipeline.Dispatcher by running args through a fresh
// command tree that shares the App and this tree's output.
func (c *cli) Dispatch(ctx context.Context, args []string, dir string) error {
	if dir == "" {
		dir = c.dir
	}
	root := newRootCmd(c.app, dir, true)
	root.SetArgs(args)
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.SetIn(os.Stdin)
	return root.ExecuteContext(ctx)
}

// workspace returns the active workspace: the --workspace flag, then
// REPLOY_WORKSPACE, then the last workspace chosen with `workspace use`,
// then defaultWorkspace.
func (c *cli) workspace() pipeline.Workspace {
	cfg := c.app.cfg
	requested := strings.TrimSpace(c.v.GetString("workspace"))
	state := config.LoadState(c.app.StateDir)

	chosen := config.ChooseWorkspace(requested, state.LastWorkspace, cfg.DefaultWorkspace)
	name, ws := cfg.ResolveWorkspace(chosen)
	if requested != "" && cfg.IsMulti() && !strings.EqualFold(name, requested) {
		fmt.Fprintf(c.errOut, "Warning: workspace %q not found, using %q\n", requested, name)
	}
	return pipeline.NewWorkspace(cfg, name, ws)
}

func (c *cli) executor() *pipeline.Executor {
	return pipeline.NewExecutor(c.app.Launcher, c.app.Spawner, c, c.pipelineOptions()...)
}

func (c *cli) pipelineOptions() []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithOutput(c.out, c.errOut),
		pipeline.WithLogger(c.app.logger),
		pipeline.WithWorkingDir(c.dir),
	}
}
