package pipeline

import (
	"io"
	"os"
	"time"

	"github.com/reploy-cli/reploy/internal/logging"
	"github.com/reploy-cli/reploy/internal/util"
)

// Option configures an Executor or a Runner.
type Option func(*options)

type options struct {
	out    io.Writer
	errOut io.Writer
	logger *logging.Logger
	cwd    string
	now    func() time.Time
}

// WithOutput sets where progress lines and step errors are printed.
func WithOutput(out, errOut io.Writer) Option {
	return func(o *options) {
		o.out = out
		o.errOut = errOut
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWorkingDir overrides the caller's working directory used as the
// fallback for command resolution.
func WithWorkingDir(dir string) Option {
	return func(o *options) {
		o.cwd = dir
	}
}

// WithClock overrides the clock used to time steps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{
		out:    os.Stdout,
		errOut: os.Stderr,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NopLogger()
	}
	if o.cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			o.cwd = wd
		}
	}
	o.out = util.NewSyncWriter(o.out)
	o.errOut = util.NewSyncWriter(o.errOut)
	return o
}
