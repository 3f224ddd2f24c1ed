// Package jsonfile persists the streak document as a JSON file on disk,
// replacing it atomically on every save.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
)

// Store is a file-backed document store. Saves write to a temporary file
// next to the target and rename it into place, so readers never observe a
// partial document.
type Store struct {
	path string
}

// NewStore creates a store writing to the given file path. The file and
// its directory are created on first save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the document from disk. A missing file yields an empty
// document. A corrupt file also yields an empty document - the original
// file is left untouched and the condition is logged, matching the
// documented startup policy.
func (s *Store) Load(_ context.Context) (*domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return domain.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Document file is corrupt, starting with empty state", "path", s.path, "error", err)
		return domain.NewDocument(), nil
	}
	if doc.Guilds == nil {
		doc.Guilds = make(map[string]*domain.GuildDocument)
	}
	return &doc, nil
}

// Save writes the document to a temporary file and atomically replaces
// the target.
func (s *Store) Save(_ context.Context, doc *domain.Document) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Ping verifies the target directory is writable.
func (s *Store) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil // created on first save
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Close is a no-op; the file is not held open between operations.
func (s *Store) Close() error { return nil }
