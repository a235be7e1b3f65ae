// Package progress implements the durable per-item completion ledger that
// makes interrupted runs resumable.
//
// The ledger is a hint, not a source of truth: IsDone re-verifies that the
// referenced output artifact still exists, so a partial-write crash that
// leaves an entry without an artifact only costs recomputation, never
// incorrect output.
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"transpipe/internal/logger"
	"transpipe/internal/models"
)

// ArtifactChecker reports whether the output artifact for a completed item
// still physically exists. The renderer implements this.
type ArtifactChecker interface {
	ArtifactExists(lang, outputID string) bool
}

// Store is the progress ledger. Safe for concurrent use; only tasks within
// one run are synchronized, not concurrent processes.
type Store struct {
	mu      sync.Mutex
	path    string
	entries map[string]map[string]models.ProgressEntry
	checker ArtifactChecker
	logger  *logger.Logger
}

// NewStore opens the ledger at path, loading any existing state. A missing
// or unreadable ledger starts empty; resuming then just re-pays the work.
func NewStore(path string, checker ArtifactChecker, log *logger.Logger) *Store {
	s := &Store{
		path:    path,
		entries: make(map[string]map[string]models.ProgressEntry),
		checker: checker,
		logger:  log,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("could not read progress ledger, starting empty", "path", path, "error", err)
		}

		return s
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		log.Warn("corrupt progress ledger, starting empty", "path", path, "error", err)
		s.entries = make(map[string]map[string]models.ProgressEntry)
	}

	return s
}

// IsDone reports whether (lang, index) completed durably AND its artifact
// still exists. A stale entry whose artifact vanished reads as not done.
func (s *Store) IsDone(lang string, index int) bool {
	entry, ok := s.Entry(lang, index)
	if !ok {
		return false
	}

	return s.checker.ArtifactExists(lang, entry.OutputID)
}

// Entry returns the raw ledger entry for (lang, index) without artifact
// verification.
func (s *Store) Entry(lang string, index int) (models.ProgressEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byIndex, ok := s.entries[lang]
	if !ok {
		return models.ProgressEntry{}, false
	}

	entry, ok := byIndex[strconv.Itoa(index)]

	return entry, ok
}

// RecordDone marks (lang, index) as completed. Durable only after Flush.
func (s *Store) RecordDone(lang string, index int, entry models.ProgressEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[lang] == nil {
		s.entries[lang] = make(map[string]models.ProgressEntry)
	}

	s.entries[lang][strconv.Itoa(index)] = entry
}

// Count returns the number of recorded entries for a language.
func (s *Store) Count(lang string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries[lang])
}

// Flush durably persists the ledger. Internally serialized; safe to call
// from multiple goroutines.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding progress ledger: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing progress ledger: %w", err)
	}

	return nil
}
