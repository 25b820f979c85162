package backup_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/backup"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/internal/storage/file"
)

// steppingClock advances one second on every call so snapshot names differ.
type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T, docs map[string]any) storage.DocumentStore {
	t.Helper()
	store, err := file.NewDocumentStore(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	for key, v := range docs {
		doc, err := storage.NewDocument(key, v)
		if err != nil {
			t.Fatalf("failed to encode %s: %v", key, err)
		}
		if err := store.Save(context.Background(), doc); err != nil {
			t.Fatalf("failed to save %s: %v", key, err)
		}
	}
	return store
}

func newService(t *testing.T, store storage.DocumentStore, dir string) *backup.Service {
	t.Helper()
	clock := &steppingClock{t: time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)}
	svc, err := backup.NewService(store, backup.Config{
		BackupDir: dir,
		Interval:  time.Hour,
		Verify:    true,
		Now:       clock.Now,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

var sampleDocs = map[string]any{
	storage.KeyEmotion: map[string]float64{"pleasure": 0.2, "arousal": 0.7, "dominance": 0.9},
	storage.KeyDrives:  map[string]float64{"boredom": 0.4},
	storage.KeyPersona: map[string]any{"name": "ANIMUS", "muted": true},
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := backup.NewService(nil, backup.Config{BackupDir: t.TempDir()}, zerolog.Nop()); err == nil {
		t.Error("expected error without a store")
	}
	if _, err := backup.NewService(newStore(t, nil), backup.Config{}, zerolog.Nop()); err == nil {
		t.Error("expected error without a backup directory")
	}
}

func TestBackupNowWritesVerifiedSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	svc := newService(t, newStore(t, sampleDocs), dir)

	result, err := svc.BackupNow(ctx)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if !result.Verified {
		t.Error("expected backup to be verified")
	}
	if result.Documents != 3 {
		t.Errorf("expected 3 documents, got %d", result.Documents)
	}
	if filepath.Dir(result.Path) != dir {
		t.Errorf("expected snapshot in %s, got %s", dir, result.Path)
	}
	if result.Size == 0 {
		t.Error("expected non-empty snapshot")
	}

	snap, err := backup.Verify(result.Path)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if snap.Version != backup.SnapshotVersion {
		t.Errorf("expected version %d, got %d", backup.SnapshotVersion, snap.Version)
	}
	if got := snap.Documents[0].Key; got != storage.KeyDrives {
		t.Errorf("expected documents in key order, first is %s", got)
	}
}

func TestBackupNowListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, newStore(t, sampleDocs), t.TempDir())

	first, err := svc.BackupNow(ctx)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	second, err := svc.BackupNow(ctx)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	backups, err := svc.ListBackups()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
	if backups[0].Path != second.Path || backups[1].Path != first.Path {
		t.Errorf("expected newest first, got %s then %s", backups[0].Path, backups[1].Path)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newStore(t, sampleDocs)
	svc := newService(t, source, t.TempDir())

	result, err := svc.BackupNow(ctx)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	target := newStore(t, map[string]any{storage.KeyEmotion: map[string]float64{"pleasure": 0.9}})
	restorer := newService(t, target, t.TempDir())
	n, err := restorer.Restore(ctx, result.Path)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 documents restored, got %d", n)
	}

	for key, want := range sampleDocs {
		doc, err := target.Load(ctx, key)
		if err != nil {
			t.Fatalf("load %s: %v", key, err)
		}
		var got, exp any
		wantJSON, _ := json.Marshal(want)
		_ = json.Unmarshal(wantJSON, &exp)
		if err := doc.Decode(&got); err != nil {
			t.Fatalf("decode %s: %v", key, err)
		}
		gotJSON, _ := json.Marshal(got)
		expJSON, _ := json.Marshal(exp)
		if string(gotJSON) != string(expJSON) {
			t.Errorf("%s: expected %s, got %s", key, expJSON, gotJSON)
		}
	}
}

func TestRestoreRejectsTamperedSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, newStore(t, sampleDocs), t.TempDir())

	result, err := svc.BackupNow(ctx)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	var snap backup.Snapshot
	raw, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	snap.Documents[0].Data = json.RawMessage(`{"boredom":1}`)
	tampered, _ := json.Marshal(snap)
	if err := os.WriteFile(result.Path, tampered, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	target := newStore(t, nil)
	restorer := newService(t, target, t.TempDir())
	if _, err := restorer.Restore(ctx, result.Path); !errors.Is(err, backup.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	keys, _ := target.Keys(ctx)
	if len(keys) != 0 {
		t.Errorf("expected nothing written, got %v", keys)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := backup.Verify(path); !errors.Is(err, backup.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestStartStopAndRestoreGuard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := newService(t, newStore(t, sampleDocs), t.TempDir())

	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := svc.Restore(ctx, "missing.json"); err != nil && err.Error() == "cannot restore while backup service is running" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("service never reported running")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := svc.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	if err := svc.Stop(); err == nil {
		t.Error("expected error stopping a stopped service")
	}
}

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, newStore(t, sampleDocs), t.TempDir())

	health, err := svc.HealthCheck()
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if health.Status != "healthy" || health.Message != "No backups yet" {
		t.Errorf("unexpected fresh status: %+v", health)
	}

	if _, err := svc.BackupNow(ctx); err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	health, err = svc.HealthCheck()
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if health.TotalBackups != 1 {
		t.Errorf("expected 1 backup, got %d", health.TotalBackups)
	}
	if health.DiskSpaceUsed == 0 {
		t.Error("expected disk usage to be reported")
	}
	if health.Status != "healthy" {
		t.Errorf("expected healthy, got %s: %s", health.Status, health.Message)
	}
}
