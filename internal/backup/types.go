// Package backup snapshots the agent's persisted state to portable JSON files
// with integrity verification, tiered retention and restore.
package backup

import (
	"time"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
)

// SnapshotVersion is the file format version written by this binary.
const SnapshotVersion = 1

// Config holds backup service configuration.
type Config struct {
	// BackupDir is the directory where snapshots are stored.
	BackupDir string

	// Interval is the duration between automated snapshots (default: 24h).
	Interval time.Duration

	Retention RetentionPolicy

	// Verify re-reads and checks every snapshot after writing it.
	Verify bool

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// ConfigFrom maps the environment configuration onto a service Config.
func ConfigFrom(b config.BackupConfig) Config {
	return Config{
		BackupDir: b.Path,
		Interval:  b.Interval,
		Verify:    b.Verify,
		Retention: RetentionPolicy{
			Hourly:  b.RetentionHourly,
			Daily:   b.RetentionDaily,
			Weekly:  b.RetentionWeekly,
			Monthly: b.RetentionMonthly,
		},
	}
}

// RetentionPolicy defines how many snapshots to keep at each tier.
// Snapshots are categorized by age:
// - Hourly: less than 24 hours old
// - Daily: between 1-7 days old
// - Weekly: between 7-30 days old
// - Monthly: between 30-365 days old
type RetentionPolicy struct {
	Hourly  int
	Daily   int
	Weekly  int
	Monthly int
}

// Snapshot is the on-disk format: every document of the store at one instant.
type Snapshot struct {
	Version   int                `json:"version"`
	CreatedAt time.Time          `json:"created_at"`
	Checksum  string             `json:"checksum"`
	Documents []storage.Document `json:"documents"`
}

// Info contains metadata about a snapshot file.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Result contains the result of a snapshot operation.
type Result struct {
	Path      string
	Duration  time.Duration
	Size      int64
	Documents int
	Verified  bool
}

// HealthStatus represents the health of the backup service.
type HealthStatus struct {
	// Status is "healthy" or "warning".
	Status        string
	Message       string
	LastBackup    time.Time
	NextBackup    time.Time
	TotalBackups  int
	BackupDir     string
	DiskSpaceUsed int64
}
