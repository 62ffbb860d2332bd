package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/session"
)

type launchCall struct {
	exe  string
	args []string
	dir  string
}

// fakeLauncher fails any command whose executable is listed in fail.
type fakeLauncher struct {
	mu    sync.Mutex
	calls []launchCall
	fail  map[string]int
}

func (f *fakeLauncher) Run(_ context.Context, exe string, args []string, dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, launchCall{exe, args, dir})
	if code, ok := f.fail[exe]; ok {
		return errors.NewExitError(exe, code)
	}
	return nil
}

func (f *fakeLauncher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeSpawner acknowledges every launch immediately. The work a real
// session would run is simulated by a goroutine that finishes after delay.
type fakeSpawner struct {
	mu       sync.Mutex
	requests []session.Request
	err      error
	delay    time.Duration
	finished chan struct{}
	once     sync.Once
}

func (f *fakeSpawner) Spawn(_ context.Context, req session.Request) (*session.Launch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.delay > 0 {
		go func() {
			time.Sleep(f.delay)
			if f.finished != nil {
				f.once.Do(func() { close(f.finished) })
			}
		}()
	}
	return &session.Launch{Session: "reploy-test", Backend: "fake"}, nil
}

type dispatchCall struct {
	args []string
	dir  string
}

// fakeDispatcher fails any verb listed in fail.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	fail  map[string]bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, args []string, dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{args, dir})
	if f.fail[strings.Join(args, " ")] || f.fail[args[0]] {
		return errors.NewExitError("reploy "+args[0], 1)
	}
	return nil
}
