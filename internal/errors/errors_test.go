package errors

import (
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ConfigurationError Tests
// -----------------------------------------------------------------------------

func TestNewConfigurationError(t *testing.T) {
	err := NewConfigurationError("cannot resolve command", ErrRepoNotFound)

	if err.message != "cannot resolve command" {
		t.Errorf("message = %q, want %q", err.message, "cannot resolve command")
	}
	if err.cause != ErrRepoNotFound {
		t.Errorf("cause = %v, want %v", err.cause, ErrRepoNotFound)
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
}

func TestConfigurationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigurationError
		want string
	}{
		{
			name: "no context",
			err:  NewConfigurationError("bad entry", nil),
			want: "configuration error: bad entry",
		},
		{
			name: "with repo and cause",
			err:  NewConfigurationError("cannot resolve command", ErrRepoNotFound).WithRepo("api"),
			want: "configuration error [repo=api]: cannot resolve command: repository not found",
		},
		{
			name: "with command",
			err:  NewConfigurationError("bad entry", ErrEmptyCommand).WithCommand(""),
			want: "configuration error: bad entry: empty command",
		},
		{
			name: "with repo and command",
			err:  NewConfigurationError("bad entry", nil).WithRepo("web").WithCommand("npm ci"),
			want: `configuration error [repo=web, command="npm ci"]: bad entry`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigurationError_Is(t *testing.T) {
	err := NewConfigurationError("x", ErrRepoNotFound)

	if !errors.Is(err, &ConfigurationError{}) {
		t.Error("errors.Is(err, &ConfigurationError{}) = false, want true")
	}
	if !errors.Is(err, ErrRepoNotFound) {
		t.Error("errors.Is(err, ErrRepoNotFound) = false, want true")
	}
	if errors.Is(err, ErrEmptyCommand) {
		t.Error("errors.Is(err, ErrEmptyCommand) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// LaunchError Tests
// -----------------------------------------------------------------------------

func TestLaunchError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *LaunchError
		want string
	}{
		{
			name: "executable and dir",
			err:  NewLaunchError("failed to start", errors.New("no such file")).WithExecutable("npm").WithDir("/ws/api"),
			want: "launch error [exe=npm, dir=/ws/api]: failed to start: no such file",
		},
		{
			name: "session",
			err:  NewLaunchError("failed to open session", ErrShellUnavailable).WithSession("reploy-dev"),
			want: "launch error [session=reploy-dev]: failed to open session: session backend unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLaunchError_Is(t *testing.T) {
	err := NewLaunchError("x", ErrShellUnavailable)
	if !errors.Is(err, &LaunchError{}) {
		t.Error("errors.Is(err, &LaunchError{}) = false, want true")
	}
	if !errors.Is(err, ErrShellUnavailable) {
		t.Error("errors.Is(err, ErrShellUnavailable) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// ExitError Tests
// -----------------------------------------------------------------------------

func TestExitError(t *testing.T) {
	err := NewExitError("npm", 2)

	if err.Code != 2 {
		t.Errorf("Code = %d, want 2", err.Code)
	}
	if got, want := err.Error(), "exit error [exe=npm]: exited with code 2"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrNonZeroExit) {
		t.Error("errors.Is(err, ErrNonZeroExit) = false, want true")
	}
	if !errors.Is(err, &ExitError{}) {
		t.Error("errors.Is(err, &ExitError{}) = false, want true")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOK   bool
	}{
		{"nil", nil, 0, false},
		{"plain", errors.New("x"), 0, false},
		{"exit error", NewExitError("git", 128), 128, true},
		{"wrapped exit error", fmt.Errorf("step: %w", NewExitError("git", 1)), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := ExitCode(tt.err)
			if code != tt.wantCode || ok != tt.wantOK {
				t.Errorf("ExitCode() = (%d, %v), want (%d, %v)", code, ok, tt.wantCode, tt.wantOK)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *NotFoundError
		want string
	}{
		{
			name: "without cause",
			err:  NewNotFoundError("pipeline", "sync"),
			want: "pipeline 'sync' not found",
		},
		{
			name: "with cause",
			err:  NewNotFoundError("workspace", "qa").WithCause(ErrWorkspaceNotFound),
			want: "workspace 'qa' not found: workspace not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFoundError_Is(t *testing.T) {
	err := NewNotFoundError("pipeline", "sync").WithCause(ErrPipelineNotFound)
	if !errors.Is(err, &NotFoundError{}) {
		t.Error("errors.Is(err, &NotFoundError{}) = false, want true")
	}
	if !errors.Is(err, ErrPipelineNotFound) {
		t.Error("errors.Is(err, ErrPipelineNotFound) = false, want true")
	}
}

func TestNotFoundError_IsMatchesResourceSentinel(t *testing.T) {
	tests := []struct {
		resource string
		target   error
		want     bool
	}{
		{"pipeline", ErrPipelineNotFound, true},
		{"workspace", ErrWorkspaceNotFound, true},
		{"repository", ErrRepoNotFound, true},
		{"pipeline", ErrWorkspaceNotFound, false},
		{"workspace", ErrRepoNotFound, false},
	}

	for _, tt := range tests {
		err := NewNotFoundError(tt.resource, "x")
		if got := errors.Is(err, tt.target); got != tt.want {
			t.Errorf("errors.Is(%s not found, %v) = %v, want %v", tt.resource, tt.target, got, tt.want)
		}
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "message only",
			err:  NewValidationError("invalid"),
			want: "validation error: invalid",
		},
		{
			name: "field and value",
			err:  NewValidationError("must be between 1 and 32").WithField("concurrency").WithValue(0),
			want: "validation error [field=concurrency, value=0]: must be between 1 and 32",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_IsInvalidConfig(t *testing.T) {
	if !errors.Is(NewValidationError("x"), ErrInvalidConfig) {
		t.Error("errors.Is(ValidationError, ErrInvalidConfig) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"configuration", NewConfigurationError("x", nil), true},
		{"wrapped launch", fmt.Errorf("ctx: %w", NewLaunchError("x", nil)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"nil", nil, SeverityDebug},
		{"plain", errors.New("x"), SeverityError},
		{"not found", NewNotFoundError("pipeline", "x"), SeverityWarning},
		{"exit", NewExitError("x", 1), SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEngineError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"configuration", NewConfigurationError("x", nil), true},
		{"launch", NewLaunchError("x", nil), true},
		{"exit", NewExitError("x", 3), true},
		{"joined", Join(errors.New("a"), NewExitError("x", 3)), true},
		{"not found", NewNotFoundError("pipeline", "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEngineError(tt.err); got != tt.want {
				t.Errorf("IsEngineError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	base := errors.New("base")
	wrapped := Wrap(base, "loading config")
	if wrapped.Error() != "loading config: base" {
		t.Errorf("Wrap() = %q, want %q", wrapped.Error(), "loading config: base")
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	wrapped := Wrapf(ErrRepoNotFound, "step %q", "build")
	if wrapped.Error() != `step "build": repository not found` {
		t.Errorf("Wrapf() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, ErrRepoNotFound) {
		t.Error("wrapped error should match sentinel")
	}
}

func TestErrorChain(t *testing.T) {
	exit := NewExitError("npm", 1)
	step := Wrapf(exit, "step %q", "install")
	joined := Join(step, NewLaunchError("x", nil))

	var got *ExitError
	if !As(joined, &got) {
		t.Fatal("As(joined, *ExitError) = false, want true")
	}
	if got.Code != 1 {
		t.Errorf("Code = %d, want 1", got.Code)
	}
}
