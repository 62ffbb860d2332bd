// Package session opens detached terminal sessions for pipeline commands.
//
// Spawning is a two-phase operation. The launch is awaited and can fail; the
// session's lifetime afterwards is never observed. Spawn returns a Launch as
// soon as the backend acknowledges the new session, so callers cannot
// accidentally block on the work running inside it.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/logging"
	"github.com/reploy-cli/reploy/internal/tmux"
)

// Request describes the command to run in a new session.
type Request struct {
	// Text is the literal command text. For system commands it is run by
	// sh -c exactly as written.
	Text string
	// Args is the self-invocation argument list (verb first). When set, the
	// session re-invokes the reploy executable with Args instead of running Text.
	Args []string
	// Workspace is appended as --workspace to self-invocations.
	Workspace string
	// Dir is the working directory. Empty means the caller's directory.
	Dir string
}

// SelfInvocation reports whether the request re-invokes reploy.
func (r Request) SelfInvocation() bool {
	return len(r.Args) > 0
}

// Launch is the acknowledgement of a started session. It carries no
// information about the exit status of the work inside the session.
type Launch struct {
	Session   string    `json:"session"`
	Backend   string    `json:"backend"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"startedAt"`
}

// String implements fmt.Stringer.
func (l Launch) String() string {
	if l.PID > 0 {
		return fmt.Sprintf("%s (%s, pid %d)", l.Session, l.Backend, l.PID)
	}
	return fmt.Sprintf("%s (%s)", l.Session, l.Backend)
}

// Backend starts a detached session running script in dir.
// It returns the PID of the session's leading process when known, else 0.
type Backend interface {
	Name() string
	Start(ctx context.Context, name, dir, script string) (int, error)
}

// Spawner composes session scripts and hands them to a Backend.
type Spawner struct {
	backend  Backend
	self     string
	keepOpen bool
	now      func() time.Time
	logger   *logging.Logger
	journal  *Journal
	seq      atomic.Int64
}

// Option configures a Spawner.
type Option func(*Spawner)

// WithKeepOpen controls whether sessions wait for Enter before closing.
func WithKeepOpen(keep bool) Option {
	return func(s *Spawner) {
		s.keepOpen = keep
	}
}

// WithClock overrides the clock used for banners and launch timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Spawner) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Spawner) {
		s.logger = logger
	}
}

// WithJournal records every successful launch in j.
func WithJournal(j *Journal) Option {
	return func(s *Spawner) {
		s.journal = j
	}
}

// NewSpawner creates a Spawner. self is the reploy executable path used for
// self-invocations inside sessions.
func NewSpawner(backend Backend, self string, opts ...Option) *Spawner {
	s := &Spawner{
		backend:  backend,
		self:     self,
		keepOpen: true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NopLogger()
	}
	return s
}

// Spawn launches req in a new detached session and returns once the backend
// has acknowledged it.
func (s *Spawner) Spawn(ctx context.Context, req Request) (*Launch, error) {
	if req.Text == "" && !req.SelfInvocation() {
		return nil, errors.NewLaunchError("nothing to run", errors.ErrEmptyCommand).WithDir(req.Dir)
	}

	startedAt := s.now()
	name := tmux.SessionName(req.label(), int(s.seq.Add(1)))
	script := Script{
		Display:  req.Display(),
		Run:      req.commandLine(s.self),
		Dir:      req.Dir,
		At:       startedAt,
		KeepOpen: s.keepOpen,
	}.String()

	log := s.logger.With("session", name, "backend", s.backend.Name(), "dir", req.Dir)
	pid, err := s.backend.Start(ctx, name, req.Dir, script)
	if err != nil {
		log.Warn("session failed to launch", "error", err.Error())
		var launchErr *errors.LaunchError
		if errors.As(err, &launchErr) {
			return nil, launchErr.WithSession(name)
		}
		return nil, errors.NewLaunchError("failed to open session", err).WithSession(name).WithDir(req.Dir)
	}

	launch := &Launch{
		Session:   name,
		Backend:   s.backend.Name(),
		PID:       pid,
		StartedAt: startedAt,
	}
	log.Info("session launched", "pid", pid, "command", req.Display())

	if s.journal != nil {
		record := Record{Launch: *launch, Dir: req.Dir, Command: req.Display()}
		if sb, ok := s.backend.(interface{ Socket() string }); ok {
			record.Socket = sb.Socket()
		}
		if err := s.journal.Add(record); err != nil {
			log.Warn("failed to journal session", "error", err.Error())
		}
	}
	return launch, nil
}

// label is the text session names are derived from.
func (r Request) label() string {
	if r.SelfInvocation() {
		return strings.Join(r.Args, " ")
	}
	return r.Text
}

// Display is the command text shown in the banner, including the appended
// workspace for self-invocations.
func (r Request) Display() string {
	if !r.SelfInvocation() {
		return r.Text
	}
	text := "reploy " + strings.Join(r.Args, " ")
	if r.Workspace != "" {
		text += " --workspace " + r.Workspace
	}
	return text
}

// commandLine is the shell text that runs the work.
func (r Request) commandLine(self string) string {
	if !r.SelfInvocation() {
		return r.Text
	}
	argv := make([]string, 0, len(r.Args)+3)
	argv = append(argv, self)
	argv = append(argv, r.Args...)
	if r.Workspace != "" {
		argv = append(argv, "--workspace", r.Workspace)
	}
	return QuoteArgs(argv)
}
