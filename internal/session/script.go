package session

import (
	"strings"
	"time"
)

// Script is the POSIX sh program run inside a detached session.
type Script struct {
	// Display is the command text echoed in the banner.
	Display string
	// Run is the shell text that performs the work.
	Run string
	// Dir is changed into before Run. Empty keeps the session's start directory.
	Dir string
	// At is the timestamp printed in the banner.
	At time.Time
	// KeepOpen waits for Enter after Run finishes so output stays readable.
	KeepOpen bool
}

// String renders the script.
func (s Script) String() string {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}

	lines := []string{
		"printf '%s\\n' " + shellQuote("[pipeline][START] "+s.At.Format(time.DateTime)),
		"printf '%s\\n' " + shellQuote("[pipeline] cwd: "+dir),
		"printf '%s\\n' " + shellQuote("[pipeline] cmd: "+s.Display),
		"cd " + shellQuote(dir) + " && " + s.Run,
		"code=$?",
		`printf '\n[pipeline] exited with code %s\n' "$code"`,
	}
	if s.KeepOpen {
		lines = append(lines, `printf '%s' '[pipeline] press Enter to close '`, "read _")
	}
	lines = append(lines, `exit "$code"`)
	return strings.Join(lines, "\n")
}

// QuoteArgs renders argv as a single shell command line.
func QuoteArgs(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// shellQuote returns s unchanged when it only holds characters the shell
// treats literally, and single-quoted otherwise.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool { return !isShellSafe(r) }) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./=:,+@%", r)
}
