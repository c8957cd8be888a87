package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"sync"
)

// Entry is the outcome recorded for one key: either the metadata of a
// downloaded icon or an error message.
type Entry struct {
	Name         string `json:"name,omitempty"`
	MainCategory string `json:"main_category,omitempty"`
	SubCategory  string `json:"sub_category,omitempty"`
	File         string `json:"file,omitempty"`
	Error        string `json:"error,omitempty"`
}

func Success(name, mainCategory, subCategory, file string) Entry {
	return Entry{
		Name:         name,
		MainCategory: mainCategory,
		SubCategory:  subCategory,
		File:         file,
	}
}

func Failure(msg string) Entry {
	return Entry{Error: msg}
}

func (e Entry) Failed() bool {
	return e.Error != ""
}

// Store maps alt-tokens (or identifiers, for failures) to entries.
// Entries are insert-once. Snapshot copies under a read lock so the
// checkpoint writer never holds up the scraper for longer than a map copy.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func New() *Store {
	return &Store{entries: map[string]Entry{}}
}

func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}

func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Put inserts entry under key. It returns false and keeps the existing entry
// if key is already present.
func (s *Store) Put(key string, entry Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = entry
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Snapshot() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.entries)
}

// Load builds a store from a result file written by a previous run.
// A missing file yields an empty store. With dropErrors set, failed entries
// are left out so their identifiers get another attempt.
func Load(path string, dropErrors bool) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result file %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse result file %s: %w", path, err)
	}
	for key, entry := range entries {
		if dropErrors && entry.Failed() {
			continue
		}
		s.entries[key] = entry
	}
	return s, nil
}

// Marshal renders a snapshot the way the result file stores it: indented,
// keys sorted, non-ASCII kept as is.
func Marshal(snapshot map[string]Entry) ([]byte, error) {
	if snapshot == nil {
		snapshot = map[string]Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
