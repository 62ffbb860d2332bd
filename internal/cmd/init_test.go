package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reploy-cli/reploy/internal/config"
	rerrors "github.com/reploy-cli/reploy/internal/errors"
)

func TestInit_Empty(t *testing.T) {
	h := newHarness(t, singleConfig)
	path := filepath.Join(t.TempDir(), "reploy.config.json")

	output, err := h.execute("init", "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, output,
		"Initialized empty reploy config: "+path,
		"Created workspaces: develop, release",
	)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.DefaultWorkspace != "develop" {
		t.Errorf("DefaultWorkspace = %q, want develop", cfg.DefaultWorkspace)
	}
	cwd, _ := os.Getwd()
	for _, name := range []string{"develop", "release"} {
		ws, ok := cfg.Workspaces[name]
		if !ok {
			t.Errorf("workspace %s missing", name)
			continue
		}
		if ws.Root != cwd || ws.Concurrency != config.DefaultConcurrency || len(ws.Repos) != 0 {
			t.Errorf("workspace %s = %+v", name, ws)
		}
	}

	_, err = h.execute("init", "-o", path)
	if !errors.Is(err, &rerrors.ValidationError{}) {
		t.Errorf("second init error = %v, want refusal to overwrite", err)
	}
	if _, err := h.execute("init", "-o", path, "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}
}

func TestInit_Scan(t *testing.T) {
	h := newHarness(t, singleConfig, "develop/api/.git", "develop/web/.git", "release/api/.git")
	writeFiles(t, filepath.Join(h.root, "develop", "web"), "package.json", "pnpm-lock.yaml")
	path := filepath.Join(t.TempDir(), "reploy.config.yaml")

	output, err := h.execute("init", "--root", h.root, "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, output,
		"Found 3 repositories",
		"Created 2 workspaces",
		"Config written: "+path,
	)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.DefaultWorkspace != "develop" {
		t.Errorf("DefaultWorkspace = %q, want develop", cfg.DefaultWorkspace)
	}

	develop := cfg.Workspaces["develop"]
	if develop.Root != h.root || len(develop.Repos) != 2 {
		t.Fatalf("develop = %+v", develop)
	}
	web, ok := develop.FindRepo("web")
	if !ok || web.Path != filepath.Join(h.root, "develop", "web") || web.PackageManager != "pnpm" {
		t.Errorf("web = %+v", web)
	}
	release := cfg.Workspaces["release"]
	if len(release.Repos) != 1 || release.Repos[0].Path != filepath.Join(h.root, "release", "api") {
		t.Errorf("release = %+v", release)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, string(raw), "path: develop/web")
}

func TestInit_DoesNotNeedAConfig(t *testing.T) {
	h := newHarness(t, "concurrency: 99\n")
	path := filepath.Join(t.TempDir(), "reploy.config.yaml")

	if _, err := h.execute("init", "-o", path); err != nil {
		t.Errorf("init with an invalid existing config error = %v", err)
	}
}
