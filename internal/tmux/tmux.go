// Package tmux provides helpers for the tmux server reploy opens detached
// pipeline sessions on.
//
// All reploy sessions live on a dedicated socket (default "reploy") so they
// never mix with the user's own tmux sessions and can be listed or cleaned
// up as a group.
package tmux

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SocketName is the default tmux socket for reploy sessions.
const SocketName = "reploy"

// SessionPrefix prefixes every session name reploy creates.
const SessionPrefix = "reploy"

// maxSessionNameLen keeps generated names readable in `tmux ls`.
const maxSessionNameLen = 48

// CommandContextWithSocket creates a context-aware exec.Cmd for tmux on socket.
func CommandContextWithSocket(ctx context.Context, socket string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "tmux", CommandArgsWithSocket(socket, args...)...)
}

// CommandArgsWithSocket returns tmux arguments with a custom socket name.
func CommandArgsWithSocket(socket string, args ...string) []string {
	if socket == "" {
		socket = SocketName
	}
	return append([]string{"-L", socket}, args...)
}

// NewSessionArgs returns the arguments that create a detached session named
// name, started in dir, running script through sh -c.
func NewSessionArgs(socket, name, dir, script string) []string {
	args := []string{"new-session", "-d", "-s", name}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	args = append(args, "sh", "-c", script)
	return CommandArgsWithSocket(socket, args...)
}

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	dashRuns        = regexp.MustCompile(`-{2,}`)
)

// SessionName derives a tmux-safe session name from free-form command text.
// tmux rejects '.' and ':' in names; everything outside [A-Za-z0-9_-] is
// replaced by '-' and runs of '-' are collapsed.
func SessionName(text string, seq int) string {
	slug := dashRuns.ReplaceAllString(unsafeNameChars.ReplaceAllString(text, "-"), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "cmd"
	}
	suffix := "-" + strconv.Itoa(seq)
	name := SessionPrefix + "-" + strings.ToLower(slug)
	if len(name)+len(suffix) > maxSessionNameLen {
		name = strings.TrimRight(name[:maxSessionNameLen-len(suffix)], "-")
	}
	return name + suffix
}

// Session describes one session on a reploy socket.
type Session struct {
	Name     string
	Created  time.Time
	Path     string
	Attached bool
}

const listFormat = "#{session_name}\t#{session_created}\t#{session_path}\t#{session_attached}"

// ListSessions returns the sessions on socket. A socket with no running
// server yields an empty list.
func ListSessions(ctx context.Context, socket string) ([]Session, error) {
	out, err := CommandContextWithSocket(ctx, socket, "list-sessions", "-F", listFormat).Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// "no server running" exits 1
			return nil, nil
		}
		return nil, err
	}
	return parseSessions(string(out)), nil
}

func parseSessions(out string) []Session {
	var sessions []Session
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 4 || fields[0] == "" {
			continue
		}
		s := Session{Name: fields[0], Path: fields[2], Attached: fields[3] != "0"}
		if secs, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
			s.Created = time.Unix(secs, 0)
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// KillSession terminates the named session on socket.
func KillSession(ctx context.Context, socket, name string) error {
	return CommandContextWithSocket(ctx, socket, "kill-session", "-t", name).Run()
}

// Available reports whether a tmux binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}
