// Package errors provides centralized error definitions and error handling
// utilities for reploy. It defines the engine's error taxonomy, semantic error
// types, and classification helpers used by the command layer to decide what
// to show the user.
//
// # Error Types
//
// Engine errors are raised while resolving and dispatching pipeline commands:
//   - ConfigurationError: an unresolved repository reference or a malformed command
//   - LaunchError: a subprocess or detached session failed to start
//   - ExitError: an awaited subprocess exited with a non-zero status
//
// Semantic errors represent common lookup and input failures:
//   - NotFoundError: pipeline, workspace, or repository not found
//   - ValidationError: invalid configuration value
//
// # Usage
//
//	err := errors.NewConfigurationError("cannot resolve command", errors.ErrRepoNotFound).
//		WithRepo("api")
//
//	var exitErr *errors.ExitError
//	if errors.As(err, &exitErr) {
//		fmt.Println(exitErr.Code)
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions so callers only import this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Configuration sentinel errors
var (
	// ErrRepoNotFound indicates a command referenced a repository missing from the registry.
	ErrRepoNotFound = New("repository not found")
	// ErrEmptyCommand indicates a command entry had no executable.
	ErrEmptyCommand = New("empty command")
	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = New("invalid configuration")
)

// Execution sentinel errors
var (
	// ErrShellUnavailable indicates the session backend binary could not be found.
	ErrShellUnavailable = New("session backend unavailable")
	// ErrNonZeroExit indicates an awaited process exited with a non-zero status.
	ErrNonZeroExit = New("process exited with non-zero status")
)

// Lookup sentinel errors
var (
	// ErrPipelineNotFound indicates a pipeline name did not resolve.
	ErrPipelineNotFound = New("pipeline not found")
	// ErrWorkspaceNotFound indicates a workspace name did not resolve.
	ErrWorkspaceNotFound = New("workspace not found")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// ReployError is the base interface for all reploy errors.
type ReployError interface {
	error
	Unwrap() error
	Is(target error) bool
	Severity() Severity
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// formatWithContext renders "<kind> [k=v, ...]: message: cause".
func formatWithContext(kind string, parts []string, message string, cause error) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

// -----------------------------------------------------------------------------
// Engine Errors
// -----------------------------------------------------------------------------

// ConfigurationError is raised when a command entry cannot be resolved
// against the active configuration, e.g. an unknown repository.
//
// Example:
//
//	err := errors.NewConfigurationError("cannot resolve command", errors.ErrRepoNotFound).WithRepo("api")
//	fmt.Println(err) // "configuration error [repo=api]: cannot resolve command: repository not found"
type ConfigurationError struct {
	baseError
	Repo    string
	Command string
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithRepo adds the repository reference to the error context.
func (e *ConfigurationError) WithRepo(repo string) *ConfigurationError {
	e.Repo = repo
	return e
}

// WithCommand adds the literal command text to the error context.
func (e *ConfigurationError) WithCommand(command string) *ConfigurationError {
	e.Command = command
	return e
}

// Error returns the formatted error message.
func (e *ConfigurationError) Error() string {
	var parts []string
	if e.Repo != "" {
		parts = append(parts, fmt.Sprintf("repo=%s", e.Repo))
	}
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command=%q", e.Command))
	}
	return formatWithContext("configuration error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ConfigurationError) Is(target error) bool {
	if _, ok := target.(*ConfigurationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// LaunchError is raised when a subprocess or a detached session could not
// be started at all.
type LaunchError struct {
	baseError
	Executable string
	Dir        string
	Session    string
}

// NewLaunchError creates a new LaunchError.
func NewLaunchError(message string, cause error) *LaunchError {
	return &LaunchError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithExecutable adds the executable name to the error context.
func (e *LaunchError) WithExecutable(exe string) *LaunchError {
	e.Executable = exe
	return e
}

// WithDir adds the working directory to the error context.
func (e *LaunchError) WithDir(dir string) *LaunchError {
	e.Dir = dir
	return e
}

// WithSession adds the detached session name to the error context.
func (e *LaunchError) WithSession(session string) *LaunchError {
	e.Session = session
	return e
}

// Error returns the formatted error message.
func (e *LaunchError) Error() string {
	var parts []string
	if e.Executable != "" {
		parts = append(parts, fmt.Sprintf("exe=%s", e.Executable))
	}
	if e.Session != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.Session))
	}
	if e.Dir != "" {
		parts = append(parts, fmt.Sprintf("dir=%s", e.Dir))
	}
	return formatWithContext("launch error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *LaunchError) Is(target error) bool {
	if _, ok := target.(*LaunchError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ExitError is raised when an inline, awaited subprocess exits non-zero.
//
// Example:
//
//	err := errors.NewExitError("npm", 2)
//	fmt.Println(err) // "exit error [exe=npm]: exited with code 2"
type ExitError struct {
	baseError
	Executable string
	Code       int
}

// NewExitError creates a new ExitError for the given executable and exit code.
func NewExitError(executable string, code int) *ExitError {
	return &ExitError{
		baseError: baseError{
			message:    fmt.Sprintf("exited with code %d", code),
			severity:   SeverityError,
			userFacing: true,
		},
		Executable: executable,
		Code:       code,
	}
}

// WithCause adds a cause to the error.
func (e *ExitError) WithCause(cause error) *ExitError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ExitError) Error() string {
	var parts []string
	if e.Executable != "" {
		parts = append(parts, fmt.Sprintf("exe=%s", e.Executable))
	}
	return formatWithContext("exit error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ExitError) Is(target error) bool {
	if _, ok := target.(*ExitError); ok {
		return true
	}
	if target == ErrNonZeroExit {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("pipeline", "sync")
//	fmt.Println(err) // "pipeline 'sync' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil && e.cause.Error() != e.message {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	switch {
	case target == ErrPipelineNotFound && e.ResourceType == "pipeline",
		target == ErrWorkspaceNotFound && e.ResourceType == "workspace",
		target == ErrRepoNotFound && e.ResourceType == "repository":
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return formatWithContext("validation error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidConfig {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var reployErr ReployError
	if As(err, &reployErr) {
		return reployErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement ReployError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var reployErr ReployError
	if As(err, &reployErr) {
		return reployErr.Severity()
	}
	return SeverityError
}

// IsEngineError returns true if the error is one the pipeline engine catches
// at its step boundary (ConfigurationError, LaunchError, or ExitError).
func IsEngineError(err error) bool {
	if err == nil {
		return false
	}
	var configErr *ConfigurationError
	var launchErr *LaunchError
	var exitErr *ExitError
	return As(err, &configErr) || As(err, &launchErr) || As(err, &exitErr)
}

// ExitCode extracts the process exit code carried by an ExitError.
// Returns 0 and false when err does not wrap an ExitError.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
