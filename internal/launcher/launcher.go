// Package launcher runs attached subprocesses that share the caller's console.
package launcher

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/logging"
)

// Launcher runs exe with args in dir and blocks until it exits.
// A non-zero exit is reported as *errors.ExitError; a process that could not
// be started at all is reported as *errors.LaunchError.
type Launcher interface {
	Run(ctx context.Context, exe string, args []string, dir string) error
}

// Exec is the os/exec backed Launcher.
type Exec struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *logging.Logger
}

// Option configures an Exec.
type Option func(*Exec)

// WithStdio overrides the streams handed to subprocesses.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Exec) {
		e.stdin = stdin
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Exec) {
		e.logger = logger
	}
}

// New creates an Exec wired to the process's own stdio.
func New(opts ...Option) *Exec {
	e := &Exec{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NopLogger()
	}
	return e
}

// Run implements Launcher.
func (e *Exec) Run(ctx context.Context, exe string, args []string, dir string) error {
	if exe == "" {
		return errors.NewLaunchError("nothing to run", errors.ErrEmptyCommand).WithDir(dir)
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = dir
	cmd.Stdin = e.stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	log := e.logger.With("exe", exe, "args", args, "dir", dir)
	log.Debug("starting process")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		log.Warn("process failed to start", "error", err.Error())
		return errors.NewLaunchError("failed to start process", err).WithExecutable(exe).WithDir(dir)
	}

	err := cmd.Wait()
	duration := time.Since(start)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Info("process exited", "code", exitErr.ExitCode(), "duration_ms", duration.Milliseconds())
			return errors.NewExitError(exe, exitErr.ExitCode()).WithCause(err)
		}
		return errors.NewLaunchError("process wait failed", err).WithExecutable(exe).WithDir(dir)
	}

	log.Info("process exited", "code", 0, "duration_ms", duration.Milliseconds())
	return nil
}
