package pipeline

import (
	"context"
	"fmt"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
)

// StepExecutor runs one step. *Executor implements it.
type StepExecutor interface {
	Execute(ctx context.Context, step config.Step, ws Workspace) error
}

// Runner runs pipelines of one workspace.
type Runner struct {
	ws   Workspace
	exec StepExecutor
	opts options
}

// NewRunner creates a Runner for ws.
func NewRunner(ws Workspace, exec StepExecutor, opts ...Option) *Runner {
	return &Runner{
		ws:   ws,
		exec: exec,
		opts: newOptions(opts),
	}
}

// Run looks up the pipeline called name and runs its steps in declared order.
//
// The only error returned is a *errors.NotFoundError when no pipeline matches,
// and in that case no step has run. Step failures never stop the run; they
// are printed as they happen and collected in the Report.
func (r *Runner) Run(ctx context.Context, name string) (*Report, error) {
	p, ok := r.ws.FindPipeline(name)
	if !ok {
		return nil, errors.NewNotFoundError("pipeline", name)
	}

	log := r.opts.logger.WithWorkspace(r.ws.Name).WithPipeline(p.Name)
	log.Info("pipeline started", "steps", len(p.Steps))

	if p.Description != "" {
		fmt.Fprintf(r.opts.out, "[pipeline] Starting: %s - %s\n", p.Name, p.Description)
	} else {
		fmt.Fprintf(r.opts.out, "[pipeline] Starting: %s\n", p.Name)
	}
	if r.ws.Name != "" {
		fmt.Fprintf(r.opts.out, "[pipeline] Active workspace: %s\n", r.ws.Name)
	}

	report := &Report{
		Pipeline: p.Name,
		Total:    len(p.Steps),
		Steps:    make([]StepResult, 0, len(p.Steps)),
	}
	for _, step := range p.Steps {
		stepName := step.DisplayName()
		start := r.opts.now()
		err := r.exec.Execute(ctx, step, r.ws)
		result := StepResult{Name: stepName, Err: err, Duration: r.opts.now().Sub(start)}
		report.Steps = append(report.Steps, result)

		if err != nil {
			fmt.Fprintf(r.opts.errOut, "[pipeline][error] step failed: %s\n", stepName)
			fmt.Fprintf(r.opts.errOut, "[pipeline][error] %v\n", err)
			// Anything other than a command failing is unexpected.
			logFailure := log.WithStep(stepName).Warn
			if !errors.IsEngineError(err) {
				logFailure = log.WithStep(stepName).Error
			}
			logFailure("step failed",
				"error", err.Error(),
				"duration_ms", result.Duration.Milliseconds(),
			)
			report.Failed = append(report.Failed, stepName)
			continue
		}
		log.WithStep(stepName).Debug("step completed", "duration_ms", result.Duration.Milliseconds())
	}

	log.Info("pipeline finished", "total", report.Total, "failed", len(report.Failed))
	return report, nil
}
