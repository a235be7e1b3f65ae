// Package utils provides common string utility functions.
package utils

import "strings"

// NormalizeWhitespace collapses all whitespace runs to single spaces and
// trims the ends.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// Truncate cuts str to at most maxLength bytes, appending an ellipsis
// marker when anything was removed.
func Truncate(str string, maxLength int) string {
	if len(str) <= maxLength {
		return str
	}

	return str[:maxLength] + "..."
}
