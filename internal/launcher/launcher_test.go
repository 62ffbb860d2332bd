package launcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reploy-cli/reploy/internal/errors"
)

func newTestExec(stdout, stderr *bytes.Buffer) *Exec {
	return New(WithStdio(strings.NewReader(""), stdout, stderr))
}

func TestRun_Success(t *testing.T) {
	var stdout, stderr bytes.Buffer
	dir := t.TempDir()

	if err := newTestExec(&stdout, &stderr).Run(context.Background(), "sh", []string{"-c", "pwd"}, dir); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// macOS temp dirs resolve through /private
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(stdout.String()))
	if got != want {
		t.Errorf("process ran in %q, want %q", got, want)
	}
}

func TestRun_StreamsStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := newTestExec(&stdout, &stderr).Run(context.Background(), "sh", []string{"-c", "echo oops >&2"}, ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.TrimSpace(stderr.String()) != "oops" {
		t.Errorf("stderr = %q, want %q", stderr.String(), "oops")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := newTestExec(&stdout, &stderr).Run(context.Background(), "sh", []string{"-c", "exit 3"}, "")

	var exitErr *errors.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *errors.ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
	if !errors.Is(err, errors.ErrNonZeroExit) {
		t.Error("error should match ErrNonZeroExit")
	}
}

func TestRun_MissingExecutable(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := newTestExec(&stdout, &stderr).Run(context.Background(), "reploy-definitely-not-installed", nil, "")

	var launchErr *errors.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("Run() error = %v, want *errors.LaunchError", err)
	}
	if launchErr.Executable != "reploy-definitely-not-installed" {
		t.Errorf("Executable = %q", launchErr.Executable)
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	var stdout, stderr bytes.Buffer
	dir := filepath.Join(t.TempDir(), "gone")

	err := newTestExec(&stdout, &stderr).Run(context.Background(), "sh", []string{"-c", "true"}, dir)
	if !errors.Is(err, &errors.LaunchError{}) {
		t.Fatalf("Run() error = %v, want LaunchError", err)
	}
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Error("Run() should not create the working directory")
	}
}

func TestRun_EmptyExecutable(t *testing.T) {
	err := New().Run(context.Background(), "", nil, "")
	if !errors.Is(err, errors.ErrEmptyCommand) {
		t.Errorf("Run(\"\") error = %v, want ErrEmptyCommand", err)
	}
}
