package utils

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// Truncate cuts s to maxLen terminal cells and appends an ellipsis. Wide
// runes and ANSI styling are measured the way the terminal renders them.
func Truncate(s string, maxLen int) string {
	if ansi.StringWidth(s) <= maxLen {
		return s
	}
	return ansi.Truncate(s, maxLen+len(ellipsis), ellipsis)
}

// Preview collapses whitespace in s to single spaces and truncates it, for
// one-line listings of message content.
func Preview(s string, maxLen int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), maxLen)
}
