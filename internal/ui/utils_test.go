package ui

import "testing"

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"escape sequence stripped", "evil\x1b[31mred\x1b[0m", "evil[31mred[0m"},
		{"bell and csi stripped", "ding\adong", "dingdong"},
		{"newline and tab kept", "a\n\tb", "a\n\tb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeText(tt.in); got != tt.want {
				t.Errorf("sanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdef", 4); got != "abc…" {
		t.Errorf("truncate mismatch: %q", got)
	}
	if got := truncateLine("ab", 4); got != "ab" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncateLine("abc", 0); got != "" {
		t.Errorf("zero width: %q", got)
	}
}
