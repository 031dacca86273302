package ui

import (
	"strings"
	"unicode"
)

// sanitizeText strips control characters from server-supplied text before
// it reaches the terminal. Escape sequences embedded in a message body
// must never drive the renderer.
func sanitizeText(s string) string {
	if !strings.ContainsFunc(s, isControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isControl(r rune) bool {
	return r != '\n' && r != '\t' && (unicode.IsControl(r) || r == 0x9B)
}

// truncateLine cuts s to width runes, appending an ellipsis when cut.
func truncateLine(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
