package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scrypster/animus/internal/storage"
)

// ErrCorrupt indicates a snapshot that fails verification.
var ErrCorrupt = errors.New("snapshot is corrupt")

// takeSnapshot reads every document from the store. Documents are read one
// at a time, so a concurrent Save may land between two of them.
func takeSnapshot(ctx context.Context, store storage.DocumentStore, now time.Time) (*Snapshot, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	snap := &Snapshot{Version: SnapshotVersion, CreatedAt: now.UTC()}
	for _, key := range keys {
		doc, err := store.Load(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		snap.Documents = append(snap.Documents, *doc)
	}

	sum, err := checksum(snap.Documents)
	if err != nil {
		return nil, err
	}
	snap.Checksum = sum
	return snap, nil
}

func checksum(docs []storage.Document) (string, error) {
	data, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("failed to encode documents: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// writeSnapshot writes snap to path via a temp file and rename.
func writeSnapshot(snap *Snapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// readSnapshot loads and verifies the snapshot at path.
func readSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := verifySnapshot(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// verifySnapshot checks the version, the checksum and every document.
func verifySnapshot(snap *Snapshot) error {
	if snap.Version < 1 || snap.Version > SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, snap.Version)
	}

	sum, err := checksum(snap.Documents)
	if err != nil {
		return err
	}
	if sum != snap.Checksum {
		return fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	seen := make(map[string]bool, len(snap.Documents))
	for i := range snap.Documents {
		doc := &snap.Documents[i]
		if err := storage.ValidateDocument(doc); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if seen[doc.Key] {
			return fmt.Errorf("%w: duplicate key %s", ErrCorrupt, doc.Key)
		}
		seen[doc.Key] = true
	}
	return nil
}
