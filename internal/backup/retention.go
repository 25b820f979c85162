package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix = "animus-snapshot-"
	fileSuffix = ".json"
	timeLayout = "20060102-150405.000000"
)

func snapshotName(t time.Time) string {
	return filePrefix + t.UTC().Format(timeLayout) + fileSuffix
}

// snapshotTime recovers the creation time from a snapshot file name.
func snapshotTime(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	t, err := time.ParseInLocation(timeLayout, stamp, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// listBackups lists all snapshot files in the backup directory, newest first.
// Files that do not carry a snapshot name are ignored.
func listBackups(backupDir string) ([]Info, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := snapshotTime(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(backupDir, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// applyRetention removes old snapshots according to the retention policy.
// Each age tier keeps its newest N; anything older than a year goes.
func applyRetention(backupDir string, policy RetentionPolicy, now time.Time) ([]string, error) {
	backups, err := listBackups(backupDir)
	if err != nil {
		return nil, err
	}

	var toDelete []string
	var hourly, daily, weekly, monthly []Info
	for _, b := range backups {
		age := now.Sub(b.Timestamp)
		switch {
		case age < 24*time.Hour:
			hourly = append(hourly, b)
		case age < 7*24*time.Hour:
			daily = append(daily, b)
		case age < 30*24*time.Hour:
			weekly = append(weekly, b)
		case age < 365*24*time.Hour:
			monthly = append(monthly, b)
		default:
			toDelete = append(toDelete, b.Path)
		}
	}

	toDelete = append(toDelete, overflow(hourly, policy.Hourly)...)
	toDelete = append(toDelete, overflow(daily, policy.Daily)...)
	toDelete = append(toDelete, overflow(weekly, policy.Weekly)...)
	toDelete = append(toDelete, overflow(monthly, policy.Monthly)...)

	var lastErr error
	removed := make([]string, 0, len(toDelete))
	for _, path := range toDelete {
		if err := os.Remove(path); err != nil {
			lastErr = err
			continue
		}
		removed = append(removed, path)
	}
	if lastErr != nil {
		return removed, fmt.Errorf("failed to delete some backups: %w", lastErr)
	}
	return removed, nil
}

func overflow(tier []Info, keep int) []string {
	if keep < 0 {
		keep = 0
	}
	if len(tier) <= keep {
		return nil
	}
	paths := make([]string, 0, len(tier)-keep)
	for _, b := range tier[keep:] {
		paths = append(paths, b.Path)
	}
	return paths
}

// calculateDiskUsage calculates total bytes used by all snapshots.
func calculateDiskUsage(backupDir string) (int64, error) {
	backups, err := listBackups(backupDir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, b := range backups {
		total += b.Size
	}
	return total, nil
}
