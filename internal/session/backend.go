package session

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/tmux"
)

// Backend names
const (
	BackendTmux     = "tmux"
	BackendTerminal = "terminal"
)

// TmuxBackend opens each session as a detached tmux session on a dedicated
// socket. Users attach with `tmux -L <socket> attach -t <session>`.
type TmuxBackend struct {
	socket   string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, args []string) ([]byte, error)
	panePID  func(ctx context.Context, socket, session string) int
}

// NewTmuxBackend creates a TmuxBackend for socket.
func NewTmuxBackend(socket string) *TmuxBackend {
	if socket == "" {
		socket = tmux.SocketName
	}
	return &TmuxBackend{
		socket:   socket,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, args []string) ([]byte, error) {
			return exec.CommandContext(ctx, "tmux", args...).CombinedOutput()
		},
		panePID: tmux.GetPanePID,
	}
}

// Name implements Backend.
func (b *TmuxBackend) Name() string { return BackendTmux }

// Socket returns the tmux socket sessions are created on.
func (b *TmuxBackend) Socket() string { return b.socket }

// Start implements Backend. It returns once tmux has created the session.
func (b *TmuxBackend) Start(ctx context.Context, name, dir, script string) (int, error) {
	if _, err := b.lookPath("tmux"); err != nil {
		return 0, errors.NewLaunchError("tmux is not installed", errors.ErrShellUnavailable).WithExecutable("tmux")
	}

	out, err := b.run(ctx, tmux.NewSessionArgs(b.socket, name, dir, script))
	if err != nil {
		return 0, errors.NewLaunchError(
			"failed to open session",
			fmt.Errorf("tmux new-session %q: %w (%s)", name, err, strings.TrimSpace(string(out))),
		).WithExecutable("tmux").WithDir(dir)
	}

	return b.panePID(ctx, b.socket, name), nil
}

// TerminalBackend opens each session in a new terminal emulator window.
// The emulator is started in its own session with no inherited stdio and
// is reaped in the background; its exit is never reported.
type TerminalBackend struct {
	argv     []string
	lookPath func(string) (string, error)
	start    func(*exec.Cmd) error
}

// NewTerminalBackend creates a TerminalBackend from an emulator command line
// such as "x-terminal-emulator -e". The session script is appended as
// `sh -c <script>`.
func NewTerminalBackend(command string) *TerminalBackend {
	return &TerminalBackend{
		argv:     strings.Fields(command),
		lookPath: exec.LookPath,
		start:    startDetached,
	}
}

// Name implements Backend.
func (b *TerminalBackend) Name() string { return BackendTerminal }

// Start implements Backend. ctx only bounds the launch call; the emulator
// outlives it.
func (b *TerminalBackend) Start(_ context.Context, name, dir, script string) (int, error) {
	if len(b.argv) == 0 {
		return 0, errors.NewLaunchError("no terminal emulator configured", errors.ErrShellUnavailable)
	}

	exe, err := b.lookPath(b.argv[0])
	if err != nil {
		return 0, errors.NewLaunchError("terminal emulator not found", errors.ErrShellUnavailable).WithExecutable(b.argv[0])
	}

	args := make([]string, 0, len(b.argv)+2)
	args = append(args, b.argv[1:]...)
	args = append(args, "sh", "-c", script)

	cmd := exec.Command(exe, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "REPLOY_SESSION="+name)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := b.start(cmd); err != nil {
		return 0, errors.NewLaunchError("failed to open terminal", err).WithExecutable(b.argv[0]).WithDir(dir)
	}

	if cmd.Process != nil {
		return cmd.Process.Pid, nil
	}
	return 0, nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// NewBackend returns the backend named by kind.
func NewBackend(kind, socket, terminal string) (Backend, error) {
	switch strings.ToLower(kind) {
	case "", BackendTmux:
		return NewTmuxBackend(socket), nil
	case BackendTerminal:
		return NewTerminalBackend(terminal), nil
	default:
		return nil, errors.NewValidationError("unknown session backend").WithField("session.backend").WithValue(kind)
	}
}
