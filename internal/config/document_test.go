package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDocument_YAMLKeepsCommentsAndOrder(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "reploy.config.yaml", `# shared checkouts
workspace: /src
concurrency: 2
repos:
  - name: api # the backend
    path: api
ignores:
  - legacy
pipelines:
  - name: sync
    steps:
      - fetch --all
`)

	doc, err := OpenDocument(path)
	if err != nil {
		t.Fatalf("OpenDocument() error = %v", err)
	}
	var ignores []string
	if ok, err := doc.Get("", "ignores", &ignores); !ok || err != nil {
		t.Fatalf("Get(ignores) = (%v, %v), want present", ok, err)
	}
	if err := doc.Set("", "ignores", append(ignores, "web")); err != nil {
		t.Fatal(err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"# shared checkouts", "# the backend", "- fetch --all"} {
		if !strings.Contains(text, want) {
			t.Errorf("saved file lost %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "repos:") > strings.Index(text, "ignores:") {
		t.Errorf("key order changed:\n%s", text)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Save error = %v", err)
	}
	if want := []string{"legacy", "web"}; !reflect.DeepEqual(cfg.Ignores, want) {
		t.Errorf("Ignores = %q, want %q", cfg.Ignores, want)
	}
	if len(cfg.Pipelines) != 1 || cfg.Pipelines[0].Steps[0].Run != "fetch --all" {
		t.Errorf("Pipelines = %+v, want the sync pipeline untouched", cfg.Pipelines)
	}
}

func TestDocument_JSONAppendToWorkspace(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "reploy.config.json", `{
  // comments are accepted on read
  "defaultWorkspace": "QA",
  "workspaces": {
    "QA": {
      "workspace": "/src/qa",
      "concurrency": 4,
      "repos": [],
    }
  }
}`)

	doc, err := OpenDocument(path)
	if err != nil {
		t.Fatalf("OpenDocument() error = %v", err)
	}
	// Workspace names match case-insensitively.
	err = doc.Append("qa", "repos",
		Repo{Name: "api", Path: "api", Type: RepoTypeBackend},
		Repo{Name: "web", Path: "web", PackageManager: "yarn"},
	)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Fatalf("saved file is not valid JSON:\n%s", data)
	}
	text := string(data)
	if strings.Index(text, `"defaultWorkspace"`) > strings.Index(text, `"workspaces"`) {
		t.Errorf("key order changed:\n%s", text)
	}
	if !strings.Contains(text, `"concurrency": 4`) {
		t.Errorf("numbers should stay numbers:\n%s", text)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Save error = %v", err)
	}
	repos := cfg.Workspaces["qa"].Repos
	if len(repos) != 2 || repos[0].Type != RepoTypeBackend || repos[1].PackageManager != "yarn" {
		t.Errorf("Repos = %+v, want api and web", repos)
	}
	if repos[0].Path != filepath.Join("/src/qa", "api") {
		t.Errorf("Repos[0].Path = %q, want it under the workspace root", repos[0].Path)
	}
}

func TestDocument_NewCreatesWorkspaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reploy.config.yaml")
	doc := NewDocument(path)

	var missing []string
	if ok, err := doc.Get("develop", "ignores", &missing); ok || err != nil {
		t.Errorf("Get() on an empty document = (%v, %v), want absent", ok, err)
	}

	if err := doc.Set("", "defaultWorkspace", "develop"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Set("develop", "concurrency", 3); err != nil {
		t.Fatal(err)
	}
	if err := doc.Append("develop", "ignores", "legacy"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	ws, ok := cfg.Workspaces["develop"]
	if !ok {
		t.Fatalf("Workspaces = %+v, want develop", cfg.Workspaces)
	}
	if ws.Concurrency != 3 || !reflect.DeepEqual(ws.Ignores, []string{"legacy"}) {
		t.Errorf("develop = %+v, want concurrency 3 and legacy ignored", ws)
	}
	if cfg.DefaultWorkspace != "develop" {
		t.Errorf("DefaultWorkspace = %q, want develop", cfg.DefaultWorkspace)
	}
}

func TestDocument_AppendToScalarFails(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "reploy.config.yaml", "ignores: legacy\n")
	doc, err := OpenDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Append("", "ignores", "web"); err == nil {
		t.Error("Append() to a scalar should fail")
	}
}

func TestOpenDocument_NotAMapping(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "reploy.config.json", `["api"]`)
	if _, err := OpenDocument(path); err == nil {
		t.Error("OpenDocument() should reject a non-object config")
	}
}
