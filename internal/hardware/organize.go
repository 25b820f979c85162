package hardware

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// organizeBuckets maps a destination folder to the extensions it collects.
var organizeBuckets = map[string][]string{
	"Images":     {".jpg", ".jpeg", ".png", ".gif", ".webp"},
	"Documents":  {".pdf", ".docx", ".txt", ".xlsx", ".md"},
	"Installers": {".exe", ".msi", ".deb", ".rpm", ".dmg", ".appimage"},
	"Archives":   {".zip", ".rar", ".7z", ".tar", ".gz"},
	"Audio":      {".mp3", ".wav", ".flac"},
	"Video":      {".mp4", ".mkv", ".webm"},
}

func bucketFor(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	for folder, exts := range organizeBuckets {
		for _, e := range exts {
			if e == ext {
				return folder, true
			}
		}
	}
	return "", false
}

// OrganizeFiles sorts the top level of the organize directory into
// per-type folders and returns how many files moved. Existing targets are
// never overwritten.
func (c *Controller) OrganizeFiles(ctx context.Context) (int, error) {
	return OrganizeDir(ctx, c.organizeDir)
}

// OrganizeDir is OrganizeFiles for an explicit directory.
func OrganizeDir(ctx context.Context, dir string) (int, error) {
	if dir == "" {
		return 0, fmt.Errorf("%w: no directory to organize", ErrUnsupported)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	moved := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return moved, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		folder, ok := bucketFor(entry.Name())
		if !ok {
			continue
		}
		targetDir := filepath.Join(dir, folder)
		if err := os.MkdirAll(targetDir, 0o755); err != nil {
			return moved, fmt.Errorf("failed to create %s: %w", targetDir, err)
		}
		target := filepath.Join(targetDir, entry.Name())
		if _, err := os.Stat(target); err == nil {
			continue
		}
		if err := os.Rename(filepath.Join(dir, entry.Name()), target); err != nil {
			continue
		}
		moved++
	}
	return moved, nil
}
