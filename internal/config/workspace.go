package config

import (
	"sort"
	"strings"
)

// FallbackWorkspace is selected when nothing else names a workspace.
const FallbackWorkspace = "develop"

// ChooseWorkspace returns the first non-empty candidate, in precedence order
// (flag, environment, last used, configured default), or FallbackWorkspace.
func ChooseWorkspace(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return FallbackWorkspace
}

// IsMulti reports whether the config defines named workspaces.
func (c *Config) IsMulti() bool {
	return len(c.Workspaces) > 0
}

// WorkspaceNames returns the configured workspace names in sorted order.
func (c *Config) WorkspaceNames() []string {
	names := make([]string, 0, len(c.Workspaces))
	for name := range c.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Workspace returns the workspace registered under name (case-insensitive).
func (c *Config) Workspace(name string) (string, WorkspaceConfig, bool) {
	if ws, ok := c.Workspaces[name]; ok {
		return name, ws, true
	}
	for _, key := range c.WorkspaceNames() {
		if strings.EqualFold(key, name) {
			return key, c.Workspaces[key], true
		}
	}
	return "", WorkspaceConfig{}, false
}

// ResolveWorkspace picks the active workspace for the requested name.
// Without named workspaces the top level is returned with an empty name.
// Otherwise the requested workspace is used, falling back to "develop" and
// then to the first workspace by sorted name.
func (c *Config) ResolveWorkspace(requested string) (string, WorkspaceConfig) {
	if !c.IsMulti() {
		return "", c.WorkspaceConfig
	}
	if name, ws, ok := c.Workspace(requested); ok {
		return name, ws
	}
	if name, ws, ok := c.Workspace(FallbackWorkspace); ok {
		return name, ws
	}
	first := c.WorkspaceNames()[0]
	return first, c.Workspaces[first]
}

// GlobalPipelines returns the pipelines available regardless of workspace.
// In single-workspace mode the top-level pipelines already belong to the
// active workspace, so there are none.
func (c *Config) GlobalPipelines() []Pipeline {
	if !c.IsMulti() {
		return nil
	}
	return c.Pipelines
}

// FindPipeline looks a pipeline up in ws first, then in the global list.
func (c *Config) FindPipeline(ws WorkspaceConfig, name string) (Pipeline, bool) {
	if p, ok := ws.FindPipeline(name); ok {
		return p, true
	}
	return findPipeline(c.GlobalPipelines(), name)
}
