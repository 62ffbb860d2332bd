package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reploy-cli/reploy/internal/errors"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
	if cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be false by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Session.Backend != BackendTmux {
		t.Errorf("Session.Backend = %q, want %q", cfg.Session.Backend, BackendTmux)
	}
	if cfg.Session.Socket != DefaultSocket {
		t.Errorf("Session.Socket = %q, want %q", cfg.Session.Socket, DefaultSocket)
	}
	if !cfg.Session.KeepOpen {
		t.Error("Session.KeepOpen should be true by default")
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() should validate, got %v", errs)
	}
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
	cwd, _ := os.Getwd()
	if cfg.Root != cwd {
		t.Errorf("Root = %q, want %q", cfg.Root, cwd)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, &errors.NotFoundError{}) {
		t.Errorf("Load() error = %v, want NotFoundError", err)
	}
}

func TestLoad_JSONWithCommentsAndShorthand(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "reploy.config.json", `{
  // workspace root is relative to this file
  "workspace": "src",
  "concurrency": 4,
  "repos": [
    {"name": "API", "path": "api", "type": "backend", "remote": {"url": "git@example.com:api.git"}},
    {"name": "web", "path": "/abs/web", "type": "frontend", "packageManager": "yarn", "demo": {"start": "yarn demo"}},
  ],
  "pipelines": [
    {
      "name": "Sync",
      "description": "fetch and build",
      "steps": [
        "fetch --all",
        {
          "name": "build-all",
          "parallel": true,
          "openWindow": true,
          "waitFor": ["fetch --all"],
          "commands": [
            "build --frontend",
            {"repo": "api", "command": "dotnet test", "openSession": true, "wait": true},
          ]
        }
      ]
    }
  ]
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := filepath.Join(dir, "src"); cfg.Root != want {
		t.Errorf("Root = %q, want %q", cfg.Root, want)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}

	api, ok := cfg.FindRepo("api")
	if !ok {
		t.Fatal("FindRepo(api) not found")
	}
	if want := filepath.Join(dir, "src", "api"); api.Path != want {
		t.Errorf("api.Path = %q, want %q", api.Path, want)
	}
	if api.Remote.URL != "git@example.com:api.git" {
		t.Errorf("api.Remote.URL = %q", api.Remote.URL)
	}
	web, _ := cfg.FindRepo("WEB")
	if web.Path != "/abs/web" || web.Demo.Start != "yarn demo" {
		t.Errorf("web = %+v", web)
	}

	p, ok := cfg.FindPipeline(cfg.WorkspaceConfig, "sync")
	if !ok {
		t.Fatal("pipeline sync not found")
	}
	if len(p.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(p.Steps))
	}

	simple := p.Steps[0]
	if !simple.IsSimple() || simple.Run != "fetch --all" {
		t.Errorf("Steps[0] = %+v, want simple step", simple)
	}

	group := p.Steps[1]
	if group.IsSimple() || group.Name != "build-all" || !group.Parallel {
		t.Errorf("Steps[1] = %+v, want parallel group build-all", group)
	}
	if group.OpenSession == nil || !*group.OpenSession {
		t.Error("openWindow should decode into OpenSession=true")
	}
	if len(group.WaitFor) != 1 {
		t.Errorf("WaitFor = %v, want 1 entry", group.WaitFor)
	}
	if len(group.Commands) != 2 {
		t.Fatalf("len(Commands) = %d, want 2", len(group.Commands))
	}

	plain := group.Commands[0]
	if plain.Command != "build --frontend" {
		t.Errorf("Commands[0].Command = %q", plain.Command)
	}
	if plain.OpenSession == nil || *plain.OpenSession {
		t.Error("string command should decode with OpenSession explicitly false")
	}

	structured := group.Commands[1]
	if structured.Repo != "api" || structured.Command != "dotnet test" {
		t.Errorf("Commands[1] = %+v", structured)
	}
	if structured.OpenSession == nil || !*structured.OpenSession {
		t.Error("Commands[1].OpenSession should be true")
	}
	if structured.Wait == nil || !*structured.Wait {
		t.Error("Commands[1].Wait should be decoded")
	}
}

func TestLoad_YAMLWorkspaces(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "reploy.config.yaml", `
workspace: /work
defaultWorkspace: qa
pipelines:
  - name: global-sync
    steps: ["fetch --all"]
workspaces:
  develop:
    repos:
      - name: api
        path: api
  qa:
    workspace: /qa
    concurrency: 2
    repos:
      - name: api
        path: api-qa
    pipelines:
      - name: smoke
        steps:
          - name: run
            commands: ["ls -la"]
session:
  backend: Terminal
  terminal: xterm -e
logging:
  enabled: true
  level: DEBUG
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.IsMulti() {
		t.Fatal("IsMulti() = false, want true")
	}
	if cfg.DefaultWorkspace != "qa" {
		t.Errorf("DefaultWorkspace = %q, want qa", cfg.DefaultWorkspace)
	}
	if cfg.Session.Backend != BackendTerminal || cfg.Session.Terminal != "xterm -e" {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if !cfg.Logging.Enabled || cfg.Logging.Level != "debug" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}

	name, dev := cfg.ResolveWorkspace("develop")
	if name != "develop" {
		t.Errorf("ResolveWorkspace name = %q", name)
	}
	if dev.Root != "/work" {
		t.Errorf("develop.Root = %q, want inherited /work", dev.Root)
	}
	if dev.Concurrency != DefaultConcurrency {
		t.Errorf("develop.Concurrency = %d, want %d", dev.Concurrency, DefaultConcurrency)
	}
	if r, _ := dev.FindRepo("api"); r.Path != "/work/api" {
		t.Errorf("develop api path = %q", r.Path)
	}

	_, qa := cfg.ResolveWorkspace("QA")
	if qa.Root != "/qa" || qa.Concurrency != 2 {
		t.Errorf("qa = %+v", qa)
	}
	if _, ok := cfg.FindPipeline(qa, "SMOKE"); !ok {
		t.Error("workspace pipeline smoke not found")
	}
	if _, ok := cfg.FindPipeline(qa, "global-sync"); !ok {
		t.Error("global pipeline should be reachable from workspace")
	}
	if _, ok := cfg.FindPipeline(qa, "missing"); ok {
		t.Error("missing pipeline should not be found")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "reploy.config.json", `{"concurrency": 64}`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail validation")
	}
	if !errors.Is(err, errors.ErrInvalidConfig) {
		t.Errorf("error should match ErrInvalidConfig: %v", err)
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || verrs[0].Field != "concurrency" {
		t.Errorf("expected concurrency validation error, got %v", err)
	}
}

func TestDiscover(t *testing.T) {
	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := Discover(filepath.Join(t.TempDir(), "missing.json"))
		if !errors.Is(err, &errors.NotFoundError{}) {
			t.Errorf("Discover() error = %v, want NotFoundError", err)
		}
	})

	t.Run("explicit path is returned absolute", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, "custom.yaml", "concurrency: 2\n")
		got, err := Discover(path)
		if err != nil {
			t.Fatalf("Discover() error = %v", err)
		}
		if got != path {
			t.Errorf("Discover() = %q, want %q", got, path)
		}
	})

	t.Run("finds config in working directory", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "reploy.config.yml", "concurrency: 2\n")
		t.Chdir(dir)
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		got, err := Discover("")
		if err != nil {
			t.Fatalf("Discover() error = %v", err)
		}
		if filepath.Base(got) != "reploy.config.yml" {
			t.Errorf("Discover() = %q, want reploy.config.yml", got)
		}
	})

	t.Run("falls back to config dir", func(t *testing.T) {
		t.Chdir(t.TempDir())
		xdg := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", xdg)
		if err := os.MkdirAll(filepath.Join(xdg, "reploy"), 0755); err != nil {
			t.Fatal(err)
		}
		want := writeConfig(t, filepath.Join(xdg, "reploy"), "config.yaml", "concurrency: 2\n")

		got, err := Discover("")
		if err != nil {
			t.Fatalf("Discover() error = %v", err)
		}
		if got != want {
			t.Errorf("Discover() = %q, want %q", got, want)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		got, err := Discover("")
		if err != nil || got != "" {
			t.Errorf("Discover() = (%q, %v), want empty", got, err)
		}
	})
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigDir(); got != "/custom/config/reploy" {
		t.Errorf("ConfigDir() = %q, want %q", got, "/custom/config/reploy")
	}
}
