// Package redis implements storage.DocumentStore on a Redis server, for
// deployments where the agent's state must outlive the host it runs on.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/scrypster/animus/internal/storage"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Namespace prefixes every key so several agents can share one server.
	Namespace string
}

// DocumentStore implements storage.DocumentStore using Redis strings for the
// documents and a set for the key index.
type DocumentStore struct {
	client    *redis.Client
	namespace string
}

// NewDocumentStore connects to Redis and verifies the connection.
func NewDocumentStore(opts Options) (*DocumentStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ns := opts.Namespace
	if ns == "" {
		ns = "animus"
	}
	return &DocumentStore{client: client, namespace: ns}, nil
}

func (s *DocumentStore) docKey(key string) string { return s.namespace + ":doc:" + key }
func (s *DocumentStore) indexKey() string         { return s.namespace + ":docs" }

// Load retrieves the document stored under key.
func (s *DocumentStore) Load(ctx context.Context, key string) (*storage.Document, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: document key is required", storage.ErrInvalidInput)
	}

	raw, err := s.client.Get(ctx, s.docKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: failed to load document %s: %w", key, err)
	}

	var doc storage.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("redis: corrupt document %s: %w", key, err)
	}
	return &doc, nil
}

// Save writes the document and records its key in one MULTI/EXEC.
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
		return fmt.Errorf("redis: failed to encode document %s: %w", doc.Key, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(doc.Key), data, 0)
		pipe.SAdd(ctx, s.indexKey(), doc.Key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: failed to save document %s: %w", doc.Key, err)
	}
	return nil
}

// Keys lists every stored key in ascending order.
func (s *DocumentStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to list documents: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client.
func (s *DocumentStore) Close() error {
	return s.client.Close()
}
