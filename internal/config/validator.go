package config

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/reploy-cli/reploy/internal/errors"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "workspaces.qa.concurrency")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is makes every ValidationErrors match errors.ErrInvalidConfig.
func (e ValidationErrors) Is(target error) bool {
	return target == errors.ErrInvalidConfig
}

// MaxConcurrency is the upper bound for the concurrency setting.
const MaxConcurrency = 32

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidBackends returns the list of valid session backends
func ValidBackends() []string {
	return []string{BackendTmux, BackendTerminal}
}

// ValidRepoTypes returns the list of valid repo types
func ValidRepoTypes() []string {
	return []string{RepoTypeFrontend, RepoTypeBackend}
}

// ValidPackageManagers returns the list of valid package managers
func ValidPackageManagers() []string {
	return []string{"yarn", "npm", "pnpm"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	errs = append(errs, c.WorkspaceConfig.validate("")...)

	names := make([]string, 0, len(c.Workspaces))
	for name := range c.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ws := c.Workspaces[name]
		errs = append(errs, ws.validate("workspaces."+name+".")...)
	}

	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateSession()...)

	return errs
}

func (w *WorkspaceConfig) validate(prefix string) []ValidationError {
	var errs []ValidationError

	if w.Concurrency < 1 || w.Concurrency > MaxConcurrency {
		errs = append(errs, ValidationError{
			Field:   prefix + "concurrency",
			Value:   w.Concurrency,
			Message: fmt.Sprintf("must be between 1 and %d", MaxConcurrency),
		})
	}

	errs = append(errs, w.validateRepos(prefix)...)
	errs = append(errs, validatePipelines(prefix+"pipelines", w.Pipelines)...)

	return errs
}

func (w *WorkspaceConfig) validateRepos(prefix string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(w.Repos))

	for i, r := range w.Repos {
		field := fmt.Sprintf("%srepos[%d]", prefix, i)

		if strings.TrimSpace(r.Name) == "" {
			errs = append(errs, ValidationError{Field: field + ".name", Value: r.Name, Message: "must not be empty"})
		} else {
			key := strings.ToLower(r.Name)
			if seen[key] {
				errs = append(errs, ValidationError{Field: field + ".name", Value: r.Name, Message: "duplicate repository name"})
			}
			seen[key] = true
		}

		if r.Path == "" {
			errs = append(errs, ValidationError{Field: field + ".path", Value: r.Path, Message: "must not be empty"})
		}
		if r.Type != "" && !slices.Contains(ValidRepoTypes(), r.Type) {
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Value:   r.Type,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidRepoTypes(), ", ")),
			})
		}
		if r.PackageManager != "" && !slices.Contains(ValidPackageManagers(), r.PackageManager) {
			errs = append(errs, ValidationError{
				Field:   field + ".packageManager",
				Value:   r.PackageManager,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidPackageManagers(), ", ")),
			})
		}
		if bt := r.Java.BuildTool; bt != "" && bt != "maven" && bt != "gradle" {
			errs = append(errs, ValidationError{Field: field + ".java.buildTool", Value: bt, Message: "must be one of: maven, gradle"})
		}
	}

	return errs
}

func validatePipelines(prefix string, pipelines []Pipeline) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(pipelines))

	for i, p := range pipelines {
		field := fmt.Sprintf("%s[%d]", prefix, i)

		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, ValidationError{Field: field + ".name", Value: p.Name, Message: "must not be empty"})
		} else {
			key := strings.ToLower(p.Name)
			if seen[key] {
				errs = append(errs, ValidationError{Field: field + ".name", Value: p.Name, Message: "duplicate pipeline name"})
			}
			seen[key] = true
		}

		if len(p.Steps) == 0 {
			errs = append(errs, ValidationError{Field: field + ".steps", Value: len(p.Steps), Message: "must contain at least one step"})
		}

		for j, s := range p.Steps {
			errs = append(errs, validateStep(fmt.Sprintf("%s.steps[%d]", field, j), s)...)
		}
	}

	return errs
}

func validateStep(field string, s Step) []ValidationError {
	if s.IsSimple() {
		if strings.TrimSpace(s.Run) == "" {
			return []ValidationError{{Field: field, Value: s.Run, Message: "command must not be empty"}}
		}
		return nil
	}

	var errs []ValidationError
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, ValidationError{Field: field + ".name", Value: s.Name, Message: "group steps must have a name"})
	}
	if len(s.Commands) == 0 {
		errs = append(errs, ValidationError{Field: field + ".commands", Value: len(s.Commands), Message: "must contain at least one command"})
	}
	for k, c := range s.Commands {
		if strings.TrimSpace(c.Command) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.commands[%d].command", field, k),
				Value:   c.Command,
				Message: "must not be empty",
			})
		}
	}
	return errs
}

func (c *Config) validateLogging() []ValidationError {
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		return []ValidationError{{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		}}
	}
	return nil
}

func (c *Config) validateSession() []ValidationError {
	var errs []ValidationError

	if !slices.Contains(ValidBackends(), c.Session.Backend) {
		errs = append(errs, ValidationError{
			Field:   "session.backend",
			Value:   c.Session.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}
	if c.Session.Backend == BackendTerminal && strings.TrimSpace(c.Session.Terminal) == "" {
		errs = append(errs, ValidationError{
			Field:   "session.terminal",
			Value:   c.Session.Terminal,
			Message: "required when session.backend is terminal",
		})
	}

	return errs
}
