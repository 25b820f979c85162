// Package badger implements storage.DocumentStore on an embedded BadgerDB.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/scrypster/animus/internal/storage"
)

const keyPrefix = "animus:doc:"

// DocumentStore implements storage.DocumentStore using BadgerDB.
// Each document is stored as its JSON envelope under "animus:doc:<key>".
type DocumentStore struct {
	db *badger.DB
}

// NewDocumentStore opens (or creates) a Badger database in dir.
func NewDocumentStore(dir string) (*DocumentStore, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.WARNING)
	return openWith(opts)
}

// NewInMemoryDocumentStore opens a non-persistent Badger database.
func NewInMemoryDocumentStore() (*DocumentStore, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING)
	return openWith(opts)
}

func openWith(opts badger.Options) (*DocumentStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &DocumentStore{db: db}, nil
}

// Load retrieves the document stored under key.
func (s *DocumentStore) Load(ctx context.Context, key string) (*storage.Document, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: document key is required", storage.ErrInvalidInput)
	}

	var doc storage.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger: failed to load document %s: %w", key, err)
	}
	return &doc, nil
}

// Save creates or replaces a document.
func (s *DocumentStore) Save(ctx context.Context, doc *storage.Document) error {
	if err := storage.ValidateDocument(doc); err != nil {
		return err
	}
	if doc.SchemaVersion == 0 {
		doc.SchemaVersion = storage.CurrentSchemaVersion
	}
	doc.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("badger: failed to encode document %s: %w", doc.Key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+doc.Key), data)
	})
}

// Keys lists every stored key in ascending order (Badger iterates sorted).
func (s *DocumentStore) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), keyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: failed to list documents: %w", err)
	}
	return keys, nil
}

// Close flushes and closes the database.
func (s *DocumentStore) Close() error {
	return s.db.Close()
}
