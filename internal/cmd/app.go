package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/launcher"
	"github.com/reploy-cli/reploy/internal/logging"
	"github.com/reploy-cli/reploy/internal/pipeline"
	"github.com/reploy-cli/reploy/internal/repo"
	"github.com/reploy-cli/reploy/internal/session"
)

// App is what one top-level invocation shares with every verb it dispatches
// in-process. The configuration is loaded once, by whichever command runs
// first, and is read-only afterwards.
//
// Nil collaborators are filled with the real implementations on load, so
// tests only set the ones they fake.
type App struct {
	Launcher pipeline.Launcher
	Spawner  pipeline.Spawner
	Git      *repo.Git
	// StateDir holds state.json, the debug log and the session journal.
	StateDir string

	mu      sync.Mutex
	cfg     *config.Config
	cfgPath string
	logger  *logging.Logger
	journal *session.Journal
}

// NewApp creates an App using the default state directory.
func NewApp() *App {
	return &App{StateDir: config.StateDir()}
}

// load reads the configuration on first use. explicit is the --config value.
func (a *App) load(explicit string, stdout, stderr io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cfg != nil {
		return nil
	}

	path, err := config.Discover(explicit)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	a.logger = logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err := logging.NewLogger(filepath.Join(a.StateDir, "logs"), cfg.Logging.Level)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: debug logging disabled: %v\n", err)
		} else {
			a.logger = logger
		}
	}
	a.logger.Debug("configuration loaded", "path", path, "workspaces", len(cfg.Workspaces))

	a.journal = session.NewJournal(filepath.Join(a.StateDir, "sessions"))
	if a.Launcher == nil {
		a.Launcher = launcher.New(
			launcher.WithStdio(os.Stdin, stdout, stderr),
			launcher.WithLogger(a.logger),
		)
	}
	if a.Spawner == nil {
		backend, err := session.NewBackend(cfg.Session.Backend, cfg.Session.Socket, cfg.Session.Terminal)
		if err != nil {
			return err
		}
		self, err := os.Executable()
		if err != nil {
			self = "reploy"
		}
		a.Spawner = session.NewSpawner(backend, self,
			session.WithKeepOpen(cfg.Session.KeepOpen),
			session.WithLogger(a.logger),
			session.WithJournal(a.journal),
		)
	}
	if a.Git == nil {
		a.Git = repo.NewGit()
	}

	a.cfg = cfg
	a.cfgPath = path
	return nil
}

// Close releases the debug log.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.logger == nil {
		return nil
	}
	return a.logger.Close()
}
