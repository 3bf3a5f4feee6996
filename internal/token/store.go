// Package token persists the bearer token the backend hands out after login:
// a single value, read on every request, discarded when the backend
// answers 401.
package token

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is a file-backed token store with an optional static fallback.
type Store struct {
	mu       sync.Mutex
	path     string
	fallback string
}

// NewStore creates a store backed by the file at path. fallback, usually
// sourced from configuration, is returned by Load when the file holds no
// token; it is never written to or cleared from disk.
func NewStore(path, fallback string) *Store {
	return &Store{path: path, fallback: fallback}
}

// Load returns the current token, or "" when none is stored. A missing file
// is not an error.
func (s *Store) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return s.fallback
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return s.fallback
	}
	return tok
}

// Save writes the token, creating the parent directory if needed.
func (s *Store) Save(tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(tok), 0o600)
}

// Clear removes the stored token. Clearing an already-absent token is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
