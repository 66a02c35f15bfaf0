package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists settings updates with read-then-write last-write-wins
// semantics. Each Update re-reads the file so concurrent writers only lose
// their own overlapping fields, never the whole file.
type Store struct {
	path string
}

// NewStore creates a settings store bound to one file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file this store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Update re-reads current settings, applies mutate, and writes the result back.
func (s *Store) Update(mutate func(*Settings)) (Settings, error) {
	cfg := Default()

	content, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(content, &cfg); err != nil {
			return Settings{}, fmt.Errorf("parse settings %q: %w", s.path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// First write materializes the defaults.
	default:
		return Settings{}, fmt.Errorf("read settings %q: %w", s.path, err)
	}

	mutate(&cfg)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return Settings{}, fmt.Errorf("ensure settings dir: %w", err)
	}

	encoded, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	encoded = append(encoded, '\n')

	if err := os.WriteFile(s.path, encoded, 0o600); err != nil {
		return Settings{}, fmt.Errorf("write settings %q: %w", s.path, err)
	}
	return cfg, nil
}
