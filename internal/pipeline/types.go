package pipeline

import (
	"strings"

	"github.com/reploy-cli/reploy/internal/config"
)

// SelfVerbs are the reploy subcommands a pipeline command can re-enter.
var SelfVerbs = []string{"fetch", "pull", "install", "build", "dev", "demo", "scan", "branch"}

// IsSelfVerb reports whether name is one of SelfVerbs. Matching is exact.
func IsSelfVerb(name string) bool {
	for _, v := range SelfVerbs {
		if v == name {
			return true
		}
	}
	return false
}

// Split breaks a command line on single spaces and drops empty tokens.
// Quoting is not interpreted.
func Split(text string) []string {
	parts := strings.Split(text, " ")
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Invocation is a fully resolved command, ready for dispatch.
type Invocation struct {
	Executable string
	Args       []string
	// Dir is the working directory.
	Dir string
	// Text is the command as written in the configuration.
	Text string
	// Self marks a reploy verb rather than a system command.
	Self bool
	// OpenSession is the effective detached-session flag.
	OpenSession bool
}

// Argv returns the executable followed by its arguments.
func (inv Invocation) Argv() []string {
	argv := make([]string, 0, len(inv.Args)+1)
	argv = append(argv, inv.Executable)
	return append(argv, inv.Args...)
}

// Workspace is the scope a pipeline run operates against.
type Workspace struct {
	// Name is the active workspace name. It is empty when the configuration
	// has no named workspaces.
	Name string
	config.WorkspaceConfig
	// Global holds pipelines available to every workspace.
	Global []config.Pipeline
}

// NewWorkspace binds the named workspace of cfg.
func NewWorkspace(cfg *config.Config, name string, ws config.WorkspaceConfig) Workspace {
	return Workspace{
		Name:            name,
		WorkspaceConfig: ws,
		Global:          cfg.GlobalPipelines(),
	}
}

// FindPipeline looks name up case-insensitively in the workspace, then in the
// global pipelines.
func (w Workspace) FindPipeline(name string) (config.Pipeline, bool) {
	if p, ok := w.WorkspaceConfig.FindPipeline(name); ok {
		return p, true
	}
	global := config.WorkspaceConfig{Pipelines: w.Global}
	return global.FindPipeline(name)
}

// AllPipelines returns the workspace pipelines followed by global pipelines that
// the workspace does not shadow.
func (w Workspace) AllPipelines() []config.Pipeline {
	all := append([]config.Pipeline(nil), w.WorkspaceConfig.Pipelines...)
	for _, p := range w.Global {
		if _, shadowed := w.WorkspaceConfig.FindPipeline(p.Name); !shadowed {
			all = append(all, p)
		}
	}
	return all
}
