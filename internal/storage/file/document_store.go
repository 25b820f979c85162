// Package file implements storage.DocumentStore as one JSON file per key in
// a directory, mirroring the flat per-engine files of a desktop install.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scrypster/animus/internal/storage"
)

const ext = ".json"

var validKey = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// DocumentStore keeps each document in <dir>/<key>.json. Writes go through a
// temp file, fsync and rename so a crash never leaves a torn document.
type DocumentStore struct {
	dir string
	mu  sync.Mutex
}

// NewDocumentStore creates dir if needed.
func NewDocumentStore(dir string) (*DocumentStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: directory cannot be empty", storage.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &DocumentStore{dir: dir}, nil
}

func (s *DocumentStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("%w: invalid document key %q", storage.ErrInvalidInput, key)
	}
	return filepath.Join(s.dir, key+ext), nil
}

// Load retrieves the document stored under key.
func (s *DocumentStore) Load(ctx context.Context, key string) (*storage.Document, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	raw, err := os.ReadFile(p)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}

	var doc storage.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("corrupt document %s: %w", key, err)
	}
	return &doc, nil
}

// Save atomically replaces the document file.
func (s *DocumentStore) Save(ctx context.Context, doc *storage.Document) error {
	if err := storage.ValidateDocument(doc); err != nil {
		return err
	}
	p, err := s.path(doc.Key)
	if err != nil {
		return err
	}
	if doc.SchemaVersion == 0 {
		doc.SchemaVersion = storage.CurrentSchemaVersion
	}
	doc.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.Key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(p, data)
}

// Keys lists every stored key in ascending order.
func (s *DocumentStore) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	keys := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ext))
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; files are closed after every operation.
func (s *DocumentStore) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
