// Package pipeline executes named pipelines against the repositories of a
// workspace.
//
// A pipeline is an ordered list of steps. A step is either a single literal
// reploy invocation (always opened in a detached session) or a named group of
// commands that run one after another or concurrently.
//
// # Components
//
// [Resolve] turns one configured command into an [Invocation]: executable,
// arguments, working directory, whether it re-enters reploy itself, and
// whether it should open a detached session.
//
// [Executor] runs one step. Each invocation is dispatched to one of three
// collaborators:
//   - a [Spawner] for detached sessions (settles on launch, never on exit)
//   - a [Dispatcher] for inline reploy verbs, handled in-process
//   - a [Launcher] for inline system commands, awaited to completion
//
// [Runner] looks a pipeline up by name, runs every step in declared order, and
// records step failures in a [Report] without stopping.
//
// # Usage
//
//	ws := pipeline.NewWorkspace(cfg, name, wsCfg)
//	exec := pipeline.NewExecutor(launcher.New(), spawner, dispatcher)
//	report, err := pipeline.NewRunner(ws, exec).Run(ctx, "sync")
//	if err != nil {
//	    return err // pipeline not found
//	}
//	fmt.Print(report.Summary())
//
// The active workspace is carried by the [Workspace] value. Nothing in this
// package reads process-wide state other than the caller's working directory,
// which can be overridden with [WithWorkingDir].
package pipeline
