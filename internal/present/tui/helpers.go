package tui

import (
	"strings"
	"unicode/utf8"
)

func joinLabels(labels []string) string {
	return strings.Join(labels, ", ")
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// runeOffset converts a row and rune column into an offset in value.
func runeOffset(value string, row, col int) int {
	lines := strings.Split(value, "\n")
	off := 0
	for i := 0; i < row && i < len(lines); i++ {
		off += utf8.RuneCountInString(lines[i]) + 1
	}
	if row < len(lines) {
		col = min(col, utf8.RuneCountInString(lines[row]))
	}
	return off + max(col, 0)
}

// lineOf returns the zero-based line holding the rune at off.
func lineOf(value string, off int) int {
	line := 0
	for i, r := range []rune(value) {
		if i >= off {
			break
		}
		if r == '\n' {
			line++
		}
	}
	return line
}
