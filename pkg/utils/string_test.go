package utils

import "testing"

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a  b", "a b"},
		{"  a\t\nb  ", "a b"},
		{"", ""},
		{"already normal", "already normal"},
	}

	for _, tt := range tests {
		if got := NormalizeWhitespace(tt.in); got != tt.want {
			t.Errorf("NormalizeWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate under limit = %q, want unchanged", got)
	}

	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate over limit = %q, want %q", got, "hello...")
	}
}
