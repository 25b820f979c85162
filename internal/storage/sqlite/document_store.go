// Package sqlite implements storage.DocumentStore and storage.VectorIndex on
// an embedded SQLite database (pure Go driver, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/animus/internal/storage"
)

// DocumentStore implements storage.DocumentStore using SQLite.
type DocumentStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewDocumentStore opens (or creates) the database at dsn with WAL
// self-healing. If the initial open fails due to stale WAL files left behind
// by a crashed process, it verifies no other process holds them and retries
// once after removing the stale -shm/-wal files.
func NewDocumentStore(dsn string, logger zerolog.Logger) (*DocumentStore, error) {
	logger = logger.With().Str("component", "storage.sqlite").Logger()

	db, err := open(dsn)
	if err == nil {
		return &DocumentStore{db: db, logger: logger}, nil
	}

	if !isRecoverableWALError(err) {
		return nil, err
	}
	dbPath := dbPathFromDSN(dsn)
	if dbPath == "" || !isWALStale(dbPath) {
		return nil, err
	}

	removeStaleWAL(dbPath, logger)

	db, retryErr := open(dsn)
	if retryErr != nil {
		return nil, fmt.Errorf("failed after WAL recovery: %w (original: %v)", retryErr, err)
	}
	logger.Warn().Str("path", dbPath).Msg("recovered from stale WAL files")
	return &DocumentStore{db: db, logger: logger}, nil
}

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; a single connection serialises writes and
	// avoids SQLITE_BUSY under concurrent engine saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

// DB exposes the underlying handle so a VectorIndex can share the connection.
func (s *DocumentStore) DB() *sql.DB {
	return s.db
}

// Load retrieves the document stored under key.
func (s *DocumentStore) Load(ctx context.Context, key string) (*storage.Document, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: document key is required", storage.ErrInvalidInput)
	}

	var (
		doc  storage.Document
		data string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, schema_version, data, updated_at FROM documents WHERE key = ?`, key,
	).Scan(&doc.Key, &doc.SchemaVersion, &data, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document %s: %w", key, err)
	}
	doc.Data = []byte(data)
	return &doc, nil
}

// Save creates or replaces a document (upsert semantics).
func (s *DocumentStore) Save(ctx context.Context, doc *storage.Document) error {
	if err := storage.ValidateDocument(doc); err != nil {
		return err
	}
	if doc.SchemaVersion == 0 {
		doc.SchemaVersion = storage.CurrentSchemaVersion
	}
	doc.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO documents (key, schema_version, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			schema_version = excluded.schema_version,
			data = excluded.data,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, doc.Key, doc.SchemaVersion, string(doc.Data), doc.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.Key, err)
	}
	return nil
}

// Keys lists every stored key in ascending order.
func (s *DocumentStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM documents ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close releases the database handle.
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

func dbPathFromDSN(dsn string) string {
	if dsn == ":memory:" || dsn == "" {
		return ""
	}
	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == ":memory:" || path == "" {
			return ""
		}
		return path
	}
	return dsn
}

// isRecoverableWALError matches errors caused by stale WAL files left behind
// after a crash (SIGKILL, OOM, etc.).
func isRecoverableWALError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database is locked")
}

// isWALStale reports whether -shm/-wal files exist for dbPath and no other
// process holds them open. Returns false if lsof is unavailable.
func isWALStale(dbPath string) bool {
	shmPath := dbPath + "-shm"
	walPath := dbPath + "-wal"
	if !fileExists(shmPath) && !fileExists(walPath) {
		return false
	}

	lsofPath, err := exec.LookPath("lsof")
	if err != nil {
		return false
	}
	output, err := exec.Command(lsofPath, "-t", dbPath, shmPath, walPath).Output()
	if err != nil {
		// lsof exits 1 when nothing has the files open.
		return true
	}
	return strings.TrimSpace(string(output)) == ""
}

func removeStaleWAL(dbPath string, logger zerolog.Logger) {
	for _, suffix := range []string{"-shm", "-wal"} {
		path := dbPath + suffix
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("failed to remove stale WAL file")
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
