package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/reploy-cli/reploy/internal/pipeline"
)

var (
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#F87171")
	warningColor = lipgloss.Color("#F59E0B")
	accentColor  = lipgloss.Color("#A78BFA")
	mutedColor   = lipgloss.Color("#9CA3AF")
)

// styles renders console text. Styling is only applied when writing to a
// terminal, so piped output and tests see plain text.
type styles struct {
	enabled bool
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	title   lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	f, ok := w.(*os.File)
	return styles{
		enabled: ok && term.IsTerminal(int(f.Fd())),
		success: lipgloss.NewStyle().Foreground(successColor).Bold(true),
		failure: lipgloss.NewStyle().Foreground(errorColor).Bold(true),
		warning: lipgloss.NewStyle().Foreground(warningColor),
		title:   lipgloss.NewStyle().Foreground(accentColor).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(mutedColor),
	}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

func (s styles) Success(text string) string { return s.render(s.success, text) }
func (s styles) Failure(text string) string { return s.render(s.failure, text) }
func (s styles) Warning(text string) string { return s.render(s.warning, text) }
func (s styles) Title(text string) string   { return s.render(s.title, text) }
func (s styles) Muted(text string) string   { return s.render(s.muted, text) }

// summary styles the closing lines of a pipeline run line by line.
func (s styles) summary(r *pipeline.Report) string {
	text := r.Summary()
	if !s.enabled {
		return text
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		switch {
		case line == "":
		case r.OK():
			lines[i] = s.Success(line)
		case strings.HasPrefix(line, "  "):
			lines[i] = s.Failure(line)
		default:
			lines[i] = s.Warning(line)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
