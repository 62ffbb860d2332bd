package pipeline

import (
	"reflect"
	"strings"
	"testing"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
)

func testWorkspace() Workspace {
	return Workspace{
		Name: "qa",
		WorkspaceConfig: config.WorkspaceConfig{
			Root: "/ws",
			Repos: []config.Repo{
				{Name: "api", Path: "/ws/services/api"},
				{Name: "Web", Path: "/ws/web"},
				{Name: "docs", Path: "docs"},
			},
		},
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"fetch --all", []string{"fetch", "--all"}},
		{"  npm   run  build ", []string{"npm", "run", "build"}},
		{"echo 'a b'", []string{"echo", "'a", "b'"}},
		{"", []string{}},
		{"   ", []string{}},
	}

	for _, tt := range tests {
		if got := Split(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Split(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve_SelfInvocation(t *testing.T) {
	tests := []struct {
		command string
		want    bool
	}{
		{"fetch --all", true},
		{"pull -r api", true},
		{"install --frontend", true},
		{"build --backend", true},
		{"dev -r web", true},
		{"demo -r web", true},
		{"scan", true},
		{"branch --develop", true},
		{"ls -la", false},
		{"npm run build", false},
		{"Fetch --all", false},
		{"fetcher", false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			inv, err := Resolve(config.Command{Command: tt.command}, nil, testWorkspace(), "/home/dev")
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if inv.Self != tt.want {
				t.Errorf("Self = %v, want %v", inv.Self, tt.want)
			}
		})
	}
}

func TestResolve_Fields(t *testing.T) {
	inv, err := Resolve(config.Command{Command: "npm run  build"}, nil, testWorkspace(), "/home/dev")
	if err != nil {
		t.Fatal(err)
	}

	want := Invocation{
		Executable: "npm",
		Args:       []string{"run", "build"},
		Dir:        "/home/dev",
		Text:       "npm run  build",
	}
	if !reflect.DeepEqual(inv, want) {
		t.Errorf("Resolve() = %+v, want %+v", inv, want)
	}
	if got := inv.Argv(); !reflect.DeepEqual(got, []string{"npm", "run", "build"}) {
		t.Errorf("Argv() = %q", got)
	}
}

func TestResolve_WorkingDirectory(t *testing.T) {
	tests := []struct {
		name string
		cmd  config.Command
		root string
		want string
	}{
		{
			name: "explicit cwd wins over repo and path",
			cmd:  config.Command{Repo: "api", Path: "x", Cwd: "/elsewhere", Command: "ls"},
			root: "/ws",
			want: "/elsewhere",
		},
		{
			name: "relative cwd resolves against caller directory",
			cmd:  config.Command{Cwd: "sub", Command: "ls"},
			root: "/ws",
			want: "/home/dev/sub",
		},
		{
			name: "repo with path",
			cmd:  config.Command{Repo: "api", Path: "x", Command: "ls"},
			root: "/ws",
			want: "/ws/services/api/x",
		},
		{
			name: "repo alone",
			cmd:  config.Command{Repo: "api", Command: "ls"},
			root: "/ws",
			want: "/ws/services/api",
		},
		{
			name: "repo lookup is case-insensitive",
			cmd:  config.Command{Repo: "WEB", Command: "ls"},
			root: "/ws",
			want: "/ws/web",
		},
		{
			name: "relative repo path resolves under workspace root",
			cmd:  config.Command{Repo: "docs", Command: "ls"},
			root: "/ws",
			want: "/ws/docs",
		},
		{
			name: "path under workspace root",
			cmd:  config.Command{Path: "tools/scripts", Command: "ls"},
			root: "/ws",
			want: "/ws/tools/scripts",
		},
		{
			name: "path without workspace root uses caller directory",
			cmd:  config.Command{Path: "tools", Command: "ls"},
			root: "",
			want: "/home/dev/tools",
		},
		{
			name: "absolute path",
			cmd:  config.Command{Path: "/opt/tools", Command: "ls"},
			root: "/ws",
			want: "/opt/tools",
		},
		{
			name: "nothing set uses caller directory",
			cmd:  config.Command{Command: "ls"},
			root: "/ws",
			want: "/home/dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := testWorkspace()
			ws.Root = tt.root

			inv, err := Resolve(tt.cmd, nil, ws, "/home/dev")
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if inv.Dir != tt.want {
				t.Errorf("Dir = %q, want %q", inv.Dir, tt.want)
			}
		})
	}
}

func TestResolve_UnknownRepo(t *testing.T) {
	tests := []struct {
		name string
		cmd  config.Command
	}{
		{"repo only", config.Command{Repo: "billing", Command: "ls"}},
		{"repo with explicit cwd", config.Command{Repo: "billing", Cwd: "/tmp", Command: "ls"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.cmd, nil, testWorkspace(), "/home/dev")
			if !errors.Is(err, errors.ErrRepoNotFound) {
				t.Fatalf("Resolve() error = %v, want ErrRepoNotFound", err)
			}
			var cfgErr *errors.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error should be *ConfigurationError, got %T", err)
			}
			if cfgErr.Repo != "billing" {
				t.Errorf("Repo = %q, want billing", cfgErr.Repo)
			}
			if got := err.Error(); strings.Count(got, "repository not found") != 1 {
				t.Errorf("Error() = %q, should name the missing repository once", got)
			}
		})
	}
}

func TestResolve_EmptyCommand(t *testing.T) {
	_, err := Resolve(config.Command{Command: "   "}, nil, testWorkspace(), "/home/dev")
	if !errors.Is(err, errors.ErrEmptyCommand) {
		t.Errorf("Resolve() error = %v, want ErrEmptyCommand", err)
	}
}

func TestResolve_EffectiveOpenSession(t *testing.T) {
	tests := []struct {
		name    string
		command *bool
		group   *bool
		want    bool
	}{
		{"neither set", nil, nil, false},
		{"group only", nil, config.Bool(true), true},
		{"command overrides group true", config.Bool(false), config.Bool(true), false},
		{"command overrides group false", config.Bool(true), config.Bool(false), true},
		{"command only", config.Bool(true), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := config.Command{Command: "ls", OpenSession: tt.command}
			inv, err := Resolve(cmd, tt.group, testWorkspace(), "/home/dev")
			if err != nil {
				t.Fatal(err)
			}
			if inv.OpenSession != tt.want {
				t.Errorf("OpenSession = %v, want %v", inv.OpenSession, tt.want)
			}
		})
	}
}
