package pipeline

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/session"
)

// Launcher runs a system command attached to the console and waits for it.
type Launcher interface {
	Run(ctx context.Context, exe string, args []string, dir string) error
}

// Spawner opens a detached session. It returns once the session is launched.
type Spawner interface {
	Spawn(ctx context.Context, req session.Request) (*session.Launch, error)
}

// Dispatcher runs a reploy verb in-process, in dir, and waits for it.
// args starts with the verb.
type Dispatcher interface {
	Dispatch(ctx context.Context, args []string, dir string) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, args []string, dir string) error

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(ctx context.Context, args []string, dir string) error {
	return f(ctx, args, dir)
}

// Executor runs single steps.
type Executor struct {
	launcher   Launcher
	spawner    Spawner
	dispatcher Dispatcher
	opts       options
}

// NewExecutor creates an Executor.
func NewExecutor(l Launcher, s Spawner, d Dispatcher, opts ...Option) *Executor {
	return &Executor{
		launcher:   l,
		spawner:    s,
		dispatcher: d,
		opts:       newOptions(opts),
	}
}

// Execute runs step against ws.
//
// A simple step always opens a session re-invoking reploy. In a group step
// each command is resolved just before it is dispatched, so a command that
// cannot be resolved fails on its own. A sequential group stops at the first
// failing command. A parallel group dispatches every command and waits for
// all of them, returning their errors joined.
//
// Commands sent to a session count as done once the session is launched.
func (e *Executor) Execute(ctx context.Context, step config.Step, ws Workspace) error {
	if step.IsSimple() {
		return e.executeSimple(ctx, step.Run, ws)
	}
	return e.executeGroup(ctx, step, ws)
}

func (e *Executor) executeSimple(ctx context.Context, text string, ws Workspace) error {
	fmt.Fprintf(e.opts.out, "[pipeline] %s\n", text)

	args := Split(text)
	if len(args) == 0 {
		return errors.NewConfigurationError("step has no command", errors.ErrEmptyCommand)
	}
	return e.spawn(ctx, session.Request{
		Text:      text,
		Args:      args,
		Workspace: ws.Name,
		Dir:       e.opts.cwd,
	})
}

func (e *Executor) executeGroup(ctx context.Context, step config.Step, ws Workspace) error {
	label := step.Name
	if step.Parallel {
		label += " (parallel)"
	}
	fmt.Fprintf(e.opts.out, "[pipeline] %s\n", label)

	run := func(cmd config.Command) error {
		inv, err := Resolve(cmd, step.OpenSession, ws, e.opts.cwd)
		if err != nil {
			return err
		}
		return e.dispatch(ctx, inv, ws)
	}

	if !step.Parallel {
		for _, cmd := range step.Commands {
			if err := run(cmd); err != nil {
				return err
			}
		}
		return nil
	}

	p := pool.New().WithErrors()
	for _, cmd := range step.Commands {
		p.Go(func() error {
			return run(cmd)
		})
	}
	return p.Wait()
}

func (e *Executor) dispatch(ctx context.Context, inv Invocation, ws Workspace) error {
	if inv.OpenSession {
		req := session.Request{Text: inv.Text, Dir: inv.Dir}
		if inv.Self {
			req.Args = inv.Argv()
			req.Workspace = ws.Name
		}
		return e.spawn(ctx, req)
	}

	log := e.opts.logger.With("command", inv.Text, "dir", inv.Dir)
	if inv.Self {
		args := inv.Argv()
		if ws.Name != "" {
			args = append(args, "--workspace", ws.Name)
		}
		log.Debug("dispatching reploy verb inline", "args", args)
		return e.dispatcher.Dispatch(ctx, args, inv.Dir)
	}

	log.Debug("running system command inline")
	return e.launcher.Run(ctx, inv.Executable, inv.Args, inv.Dir)
}

func (e *Executor) spawn(ctx context.Context, req session.Request) error {
	fmt.Fprintf(e.opts.out, "[pipeline] Opening session: %s\n", req.Display())
	if req.Dir != "" {
		fmt.Fprintf(e.opts.out, "[pipeline] Working directory: %s\n", req.Dir)
	}

	launch, err := e.spawner.Spawn(ctx, req)
	if err != nil {
		return err
	}
	if launch != nil {
		fmt.Fprintf(e.opts.out, "[pipeline] Session opened: %s\n", launch)
	}
	return nil
}
