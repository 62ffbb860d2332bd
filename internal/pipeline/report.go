package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/reploy-cli/reploy/internal/errors"
)

// ErrStepsFailed is returned by Report.Err when at least one step failed.
var ErrStepsFailed = errors.New("pipeline steps failed")

// StepResult is the outcome of one step.
type StepResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

// OK reports whether the step succeeded.
func (r StepResult) OK() bool {
	return r.Err == nil
}

// Report is the outcome of a pipeline run. Every step appears in Steps
// exactly once, in declared order; Failed lists the names of failed steps in
// the order they failed.
type Report struct {
	Pipeline string
	Total    int
	Failed   []string
	Steps    []StepResult
}

// OK reports whether every step succeeded.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Succeeded returns the number of steps that did not fail.
func (r *Report) Succeeded() int {
	return r.Total - len(r.Failed)
}

// Err returns nil when every step succeeded and an error wrapping
// ErrStepsFailed otherwise.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%w: %d of %d in %q", ErrStepsFailed, len(r.Failed), r.Total, r.Pipeline)
}

// Summary renders the closing lines printed after a run.
func (r *Report) Summary() string {
	var b strings.Builder
	if r.OK() {
		fmt.Fprintf(&b, "[pipeline] Completed: %s\n", r.Pipeline)
		b.WriteString("[pipeline] All steps executed successfully\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\n[pipeline] Pipeline completed with %d failed step(s):\n", len(r.Failed))
	for i, name := range r.Failed {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, name)
	}
	fmt.Fprintf(&b, "\n[pipeline] Total steps: %d, Failed: %d, Success: %d\n", r.Total, len(r.Failed), r.Succeeded())
	return b.String()
}
