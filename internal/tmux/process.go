package tmux

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// GetPanePID returns the PID of the process running in the session's pane.
// Returns 0 if the PID cannot be determined (e.g., session already exited).
func GetPanePID(ctx context.Context, socket, session string) int {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	output, err := CommandContextWithSocket(ctx, socket, "display-message", "-t", session, "-p", "#{pane_pid}").Output()
	if err != nil {
		return 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(output)))
	if err != nil {
		return 0
	}
	return pid
}

// GetDescendantPIDs returns all descendant PIDs of pid, depth first.
func GetDescendantPIDs(pid int) []int {
	if pid <= 0 {
		return nil
	}

	output, err := exec.Command("pgrep", "-P", strconv.Itoa(pid)).Output()
	if err != nil {
		return nil
	}

	var descendants []int
	for _, line := range strings.Fields(string(output)) {
		child, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		descendants = append(descendants, child)
		descendants = append(descendants, GetDescendantPIDs(child)...)
	}
	return descendants
}

// IsProcessAlive checks if a process with the given PID exists.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

// KillSessionTree kills session and every process started inside it. The
// process tree is collected first since dev servers often leave children
// behind that survive the SIGHUP from kill-session.
func KillSessionTree(ctx context.Context, socket, session string) error {
	var tree []int
	if pid := GetPanePID(ctx, socket, session); pid > 0 {
		tree = append([]int{pid}, GetDescendantPIDs(pid)...)
	}

	err := KillSession(ctx, socket, session)

	for i := len(tree) - 1; i >= 0; i-- {
		if IsProcessAlive(tree[i]) {
			_ = syscall.Kill(tree[i], syscall.SIGKILL)
		}
	}
	return err
}
