// Package util holds small console helpers shared by the command layer and
// the pipeline engine.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// TruncateANSI shortens s to at most width visible columns, keeping escape
// sequences intact and appending Ellipsis when anything was cut.
func TruncateANSI(s string, width int) string {
	if width <= len(Ellipsis) {
		return Ellipsis
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, Ellipsis)
}

// PadANSI right-pads s with spaces to width visible columns. Styled text is
// measured without its escape sequences.
func PadANSI(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// MaxWidth returns the widest visible width among values.
func MaxWidth(values []string) int {
	max := 0
	for _, v := range values {
		if w := lipgloss.Width(v); w > max {
			max = w
		}
	}
	return max
}
