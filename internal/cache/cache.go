// Package cache provides a content-addressed store for translated text.
//
// Entries are keyed by a fingerprint of (source text, target language), not
// by record identity, so identical text anywhere in a batch, or across runs,
// resolves to one cached value. The cache is a pure memoization layer: a
// miss always falls through to the live transform, and a failed write is
// logged and swallowed.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"transpipe/internal/logger"
)

// Store is the cache contract used by the translator.
type Store interface {
	// Get returns the cached translation for (text, lang), if present.
	Get(text, lang string) (string, bool)
	// Put stores a translation. Failures are swallowed; the cache is
	// best-effort.
	Put(text, lang, translated string)
}

// Fingerprint derives the stable cache key for (text, lang). SHA-256 keeps
// arbitrarily long inputs down to a bounded-length key without practical
// collisions.
func Fingerprint(text, lang string) string {
	sum := sha256.Sum256([]byte(text + "|" + lang))

	return hex.EncodeToString(sum[:])
}

// entry is the on-disk representation. The original prefix is kept for
// manual inspection of the cache directory, never used for lookups.
type entry struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

const originalPreviewLen = 100

// FSStore is a file-backed Store with one JSON file per entry.
type FSStore struct {
	dir    string
	logger *logger.Logger
	mu     sync.Mutex
}

// NewFSStore creates a file-backed cache under dir, creating it if needed.
func NewFSStore(dir string, log *logger.Logger) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &FSStore{dir: dir, logger: log}, nil
}

func (s *FSStore) path(text, lang string) string {
	return filepath.Join(s.dir, fmt.Sprintf("trans_%s_%s.json", lang, Fingerprint(text, lang)))
}

// Get returns the cached translation for (text, lang), if present.
func (s *FSStore) Get(text, lang string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(text, lang))
	if err != nil {
		return "", false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Corrupt entry behaves like a miss.
		return "", false
	}

	if e.Translated == "" {
		return "", false
	}

	return e.Translated, true
}

// Put stores a translation, logging and swallowing any failure.
func (s *FSStore) Put(text, lang, translated string) {
	preview := truncateAtRune(text, originalPreviewLen)

	data, err := json.Marshal(entry{Original: preview, Translated: translated})
	if err != nil {
		s.logger.Warn("could not encode cache entry", "lang", lang, "error", err)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path(text, lang), data, 0644); err != nil {
		s.logger.Warn("could not write cache entry", "lang", lang, "error", err)
	}
}

// truncateAtRune cuts s to at most maxBytes without splitting a UTF-8
// sequence.
func truncateAtRune(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}

	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}

// MemStore is an in-memory Store. It backs tests and dry runs where no
// cache directory is wanted.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemStore creates an empty in-memory cache.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]string)}
}

// Get returns the cached translation for (text, lang), if present.
func (s *MemStore) Get(text, lang string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[Fingerprint(text, lang)]

	return v, ok
}

// Put stores a translation.
func (s *MemStore) Put(text, lang, translated string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[Fingerprint(text, lang)] = translated
}

// Len reports the number of entries. Used in tests.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
