// Package chunker splits oversized text into bounded pieces at safe
// boundaries and reassembles translated pieces.
//
// Splitting prefers sentence boundaries, falls back to word boundaries for
// a single oversized sentence, and force-splits by raw characters only for
// pathological input with no separators at all. Join is ordered
// concatenation with single separating spaces: for whitespace-normalized
// input, Join(Split(text)) == text when each piece passes through an
// identity transform.
package chunker

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// Split cuts text into ordered chunks of at most maxLen bytes. Text at or
// under the limit is returned as a single chunk, unchanged.
func Split(text string, maxLen int) []string {
	if maxLen < 1 || len(text) <= maxLen {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}

		current.Reset()
	}

	segs := sentences.FromString(text)
	for segs.Next() {
		seg := segs.Value()

		if current.Len()+len(seg) > maxLen {
			flush()

			// A single sentence over the limit gets split on word
			// boundaries instead.
			if len(strings.TrimSpace(seg)) > maxLen {
				chunks = append(chunks, splitWords(strings.TrimSpace(seg), maxLen)...)

				continue
			}
		}

		current.WriteString(seg)
	}

	flush()

	// Pathological input: no sentence or word separators at all.
	if len(chunks) == 0 {
		return splitRunes(text, maxLen)
	}

	return chunks
}

// Join reassembles translated chunks with single separating spaces. No
// attempt is made to restore punctuation beyond what each chunk preserves.
func Join(parts []string) string {
	trimmed := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			trimmed = append(trimmed, p)
		}
	}

	return strings.Join(trimmed, " ")
}

// splitWords accumulates whitespace-separated words into chunks of at most
// maxLen bytes. Words longer than the limit are force-split.
func splitWords(sentence string, maxLen int) []string {
	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}

		current.Reset()
	}

	for _, word := range strings.Fields(sentence) {
		if len(word) > maxLen {
			flush()

			chunks = append(chunks, splitRunes(word, maxLen)...)

			continue
		}

		if current.Len()+len(word)+1 > maxLen {
			flush()
		}

		current.WriteString(word)
		current.WriteString(" ")
	}

	flush()

	return chunks
}

// splitRunes force-splits text by raw character count, keeping each piece
// within maxLen bytes without breaking UTF-8 sequences.
func splitRunes(text string, maxLen int) []string {
	var (
		chunks  []string
		current strings.Builder
	)

	for _, r := range text {
		if current.Len()+len(string(r)) > maxLen && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
