// Command animus-backup snapshots, lists, verifies and restores agent state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/backup"
	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/logging"
	"github.com/scrypster/animus/internal/storage/backend"
)

var (
	backupDir = flag.String("backup-dir", "", "Backup directory path (overrides config)")
	interval  = flag.Duration("interval", 0, "Backup interval (overrides config)")
	verify    = flag.Bool("verify", true, "Verify snapshots after creation")
	oneshot   = flag.Bool("oneshot", false, "Take a single snapshot and exit")
	restore   = flag.String("restore", "", "Restore state from a snapshot file and exit (stop the agent first)")
	check     = flag.String("check", "", "Verify a snapshot file and exit")
	healthCmd = flag.Bool("health", false, "Check backup health and exit")
	listCmd   = flag.Bool("list", false, "List all snapshots and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging, false)

	if *check != "" {
		handleCheck(*check)
		return
	}

	stores, err := backend.Open(cfg.Storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer func() { _ = stores.Close() }()

	bcfg := backup.ConfigFrom(cfg.Backup)
	if *backupDir != "" {
		bcfg.BackupDir = *backupDir
	}
	if *interval > 0 {
		bcfg.Interval = *interval
	}
	bcfg.Verify = *verify

	service, err := backup.NewService(stores.Documents, bcfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create backup service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *restore != "":
		handleRestore(ctx, service, *restore, logger)
	case *healthCmd:
		handleHealth(service)
	case *listCmd:
		handleList(service)
	case *oneshot:
		handleOneshot(ctx, service, logger)
	default:
		runService(ctx, service, logger)
	}
}

func handleCheck(path string) {
	snap, err := backup.Verify(path)
	if err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK: %d documents, taken %s\n", len(snap.Documents), snap.CreatedAt.Format(time.RFC3339))
}

func handleRestore(ctx context.Context, service *backup.Service, path string, logger zerolog.Logger) {
	n, err := service.Restore(ctx, path)
	if err != nil {
		logger.Fatal().Err(err).Int("restored", n).Msg("restore failed")
	}
	fmt.Printf("Restored %d documents from %s\n", n, path)
}

func handleHealth(service *backup.Service) {
	health, err := service.HealthCheck()
	if err != nil {
		fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Status: %s\n", health.Status)
	if health.Message != "" {
		fmt.Printf("Message: %s\n", health.Message)
	}
	fmt.Printf("Total Backups: %d\n", health.TotalBackups)
	fmt.Printf("Disk Space Used: %.2f KB\n", float64(health.DiskSpaceUsed)/1024)
	fmt.Printf("Backup Directory: %s\n", health.BackupDir)
	if !health.LastBackup.IsZero() {
		fmt.Printf("Last Backup: %s (%s ago)\n",
			health.LastBackup.Format(time.RFC3339),
			time.Since(health.LastBackup).Round(time.Minute))
	} else {
		fmt.Println("Last Backup: Never")
	}

	if health.Status != "healthy" {
		os.Exit(1)
	}
}

func handleList(service *backup.Service) {
	backups, err := service.ListBackups()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list backups: %v\n", err)
		os.Exit(1)
	}
	if len(backups) == 0 {
		fmt.Println("No backups found")
		return
	}

	fmt.Printf("Found %d backup(s):\n\n", len(backups))
	for i, b := range backups {
		fmt.Printf("%d. %s\n", i+1, b.Path)
		fmt.Printf("   Size: %.2f KB\n", float64(b.Size)/1024)
		fmt.Printf("   Created: %s (%s ago)\n\n",
			b.Timestamp.Format(time.RFC3339),
			time.Since(b.Timestamp).Round(time.Minute))
	}
}

func handleOneshot(ctx context.Context, service *backup.Service, logger zerolog.Logger) {
	result, err := service.BackupNow(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("backup failed")
	}
	logger.Info().
		Str("path", result.Path).
		Int("documents", result.Documents).
		Int64("size", result.Size).
		Dur("duration", result.Duration).
		Bool("verified", result.Verified).
		Msg("backup completed")
}

func runService(ctx context.Context, service *backup.Service, logger zerolog.Logger) {
	logger.Info().Msg("animus backup service started, press Ctrl+C to stop")
	if err := service.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("backup service error")
	}
	logger.Info().Msg("backup service stopped")
}
