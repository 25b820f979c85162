// Package backend selects and opens the configured storage engine.
package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/internal/storage/badger"
	"github.com/scrypster/animus/internal/storage/file"
	"github.com/scrypster/animus/internal/storage/postgres"
	"github.com/scrypster/animus/internal/storage/redis"
	"github.com/scrypster/animus/internal/storage/sqlite"
)

// Stores bundles the opened document store with its optional vector index.
// Vectors is nil for engines without embedding support.
type Stores struct {
	Documents storage.DocumentStore
	Vectors   storage.VectorIndex
}

// Close releases the document store.
func (s *Stores) Close() error {
	if s == nil || s.Documents == nil {
		return nil
	}
	return s.Documents.Close()
}

// Open creates the storage engine named by cfg.Engine.
func Open(cfg config.StorageConfig, logger zerolog.Logger) (*Stores, error) {
	switch cfg.Engine {
	case config.EngineSQLite:
		path, err := dataFile(cfg.DataPath, "animus.db")
		if err != nil {
			return nil, err
		}
		store, err := sqlite.NewDocumentStore(path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		out := &Stores{Documents: store}
		if cfg.SemanticMemory {
			out.Vectors = sqlite.NewVectorIndex(store.DB())
		}
		return out, nil

	case config.EnginePostgres:
		store, err := postgres.NewDocumentStore(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		out := &Stores{Documents: store}
		if cfg.SemanticMemory {
			out.Vectors = store.VectorIndex()
		}
		return out, nil

	case config.EngineBadger:
		store, err := badger.NewDocumentStore(filepath.Join(cfg.DataPath, "badger"))
		if err != nil {
			return nil, err
		}
		return &Stores{Documents: store}, nil

	case config.EngineRedis:
		store, err := redis.NewDocumentStore(redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return &Stores{Documents: store}, nil

	case config.EngineFile:
		store, err := file.NewDocumentStore(filepath.Join(cfg.DataPath, "state"))
		if err != nil {
			return nil, err
		}
		return &Stores{Documents: store}, nil
	}

	return nil, fmt.Errorf("%w: unknown storage engine %q", config.ErrInvalid, cfg.Engine)
}

func dataFile(dir, name string) (string, error) {
	if dir == ":memory:" || strings.HasPrefix(dir, "file:") {
		return dir, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}
