package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/storage"
)

// Service takes scheduled snapshots of a DocumentStore.
type Service struct {
	store     storage.DocumentStore
	backupDir string
	interval  time.Duration
	retention RetentionPolicy
	verify    bool
	now       func() time.Time
	logger    zerolog.Logger

	mu             sync.Mutex
	running        bool
	stopCh         chan struct{}
	lastBackupTime time.Time
	nextBackupTime time.Time
}

// NewService creates a backup service for store.
func NewService(store storage.DocumentStore, cfg Config, logger zerolog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if cfg.BackupDir == "" {
		return nil, errors.New("backup directory is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Retention == (RetentionPolicy{}) {
		cfg.Retention = RetentionPolicy{Hourly: 24, Daily: 7, Weekly: 4, Monthly: 12}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &Service{
		store:     store,
		backupDir: cfg.BackupDir,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		verify:    cfg.Verify,
		now:       cfg.Now,
		logger:    logger.With().Str("component", "backup").Logger(),
		stopCh:    make(chan struct{}),
	}, nil
}

// Start runs scheduled snapshots until ctx is cancelled or Stop is called.
// It blocks; run it in a goroutine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("backup service is already running")
	}
	s.running = true
	s.nextBackupTime = s.now().Add(s.interval)
	stopCh := s.stopCh
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Str("dir", s.backupDir).Msg("backup service started")

	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			result, err := s.BackupNow(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("scheduled backup failed")
			} else {
				s.logger.Info().
					Str("path", result.Path).
					Int("documents", result.Documents).
					Int64("size", result.Size).
					Dur("duration", result.Duration).
					Bool("verified", result.Verified).
					Msg("scheduled backup completed")
			}
			s.mu.Lock()
			s.nextBackupTime = s.now().Add(s.interval)
			s.mu.Unlock()
		}
	}
}

func (s *Service) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		s.stopCh = make(chan struct{})
	}
}

// Stop ends a running Start loop.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return errors.New("backup service is not running")
	}
	close(s.stopCh)
	s.stopCh = make(chan struct{})
	s.running = false
	return nil
}

// BackupNow writes a snapshot immediately, verifies it when configured and
// applies the retention policy. Retention failures are logged, not returned.
func (s *Service) BackupNow(ctx context.Context) (*Result, error) {
	start := s.now()

	snap, err := takeSnapshot(ctx, s.store, start)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.backupDir, snapshotName(start))
	if err := writeSnapshot(snap, path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	result := &Result{
		Path:      path,
		Size:      info.Size(),
		Documents: len(snap.Documents),
	}
	if s.verify {
		if _, err := readSnapshot(path); err != nil {
			return result, fmt.Errorf("backup verification failed: %w", err)
		}
		result.Verified = true
	}
	result.Duration = s.now().Sub(start)

	s.mu.Lock()
	s.lastBackupTime = s.now()
	s.mu.Unlock()

	removed, err := applyRetention(s.backupDir, s.retention, s.now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to apply retention policy")
	}
	if len(removed) > 0 {
		s.logger.Debug().Int("removed", len(removed)).Msg("retention applied")
	}
	return result, nil
}

// ListBackups lists all snapshots, newest first.
func (s *Service) ListBackups() ([]Info, error) {
	return listBackups(s.backupDir)
}

// Verify checks the snapshot at path without touching any store.
func Verify(path string) (*Snapshot, error) {
	return readSnapshot(path)
}

// Restore saves every document of the snapshot back into the store. The
// snapshot is verified in full before the first write. Restore refuses to run
// while the schedule is active; the agent must not be running either, or its
// engines will overwrite the restored documents.
func (s *Service) Restore(ctx context.Context, path string) (int, error) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running {
		return 0, errors.New("cannot restore while backup service is running")
	}

	snap, err := readSnapshot(path)
	if err != nil {
		return 0, err
	}

	for i := range snap.Documents {
		doc := snap.Documents[i]
		if err := s.store.Save(ctx, &doc); err != nil {
			return i, fmt.Errorf("failed to restore %s: %w", doc.Key, err)
		}
	}

	s.logger.Info().Str("path", path).Int("documents", len(snap.Documents)).Msg("state restored from backup")
	return len(snap.Documents), nil
}

// HealthCheck reports whether snapshots are being taken on schedule.
func (s *Service) HealthCheck() (*HealthStatus, error) {
	s.mu.Lock()
	lastBackup := s.lastBackupTime
	nextBackup := s.nextBackupTime
	s.mu.Unlock()

	backups, err := s.ListBackups()
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	diskUsage, err := calculateDiskUsage(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate disk usage: %w", err)
	}

	status := &HealthStatus{
		Status:        "healthy",
		LastBackup:    lastBackup,
		NextBackup:    nextBackup,
		TotalBackups:  len(backups),
		BackupDir:     s.backupDir,
		DiskSpaceUsed: diskUsage,
	}

	// Fall back to the newest file so a fresh process still knows its history.
	if lastBackup.IsZero() && len(backups) > 0 {
		lastBackup = backups[0].Timestamp
		status.LastBackup = lastBackup
	}

	since := s.now().Sub(lastBackup)
	switch {
	case lastBackup.IsZero():
		status.Message = "No backups yet"
	case since > s.interval*2:
		status.Status = "warning"
		status.Message = fmt.Sprintf("Backup overdue by %v", (since - s.interval).Round(time.Minute))
	default:
		status.Message = fmt.Sprintf("Last backup: %v ago", since.Round(time.Minute))
	}
	return status, nil
}
