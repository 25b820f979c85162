// Command animus runs the agent: the engines, the autonomy loop and the
// HTTP/WebSocket surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/agent"
	"github.com/scrypster/animus/internal/backup"
	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/engine"
	"github.com/scrypster/animus/internal/hardware"
	"github.com/scrypster/animus/internal/llm"
	"github.com/scrypster/animus/internal/logging"
	"github.com/scrypster/animus/internal/notify"
	"github.com/scrypster/animus/internal/server"
	"github.com/scrypster/animus/internal/storage/backend"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging, cfg.IsProduction())
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("animus exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := backend.Open(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Warn().Err(err).Msg("storage close failed")
		}
	}()

	gen, err := llm.NewGenerator(cfg.LLM, logger)
	if err != nil {
		return err
	}

	var embedder engine.Embedder
	if cfg.Storage.SemanticMemory && stores.Vectors != nil {
		embedder = llm.NewEmbeddingGenerator(cfg.LLM, logger)
	}

	host := hardware.NewController(hardware.Options{OrganizeDir: cfg.Persona.OrganizeDir}, logger)

	fanout := notify.NewFanout(logger)
	fanout.Add("log", notify.LogSink{Logger: logging.Component(logger, "events")})
	if cfg.Autonomy.SpoolEvents {
		fanout.Add("spool", notify.NewEventWriter(cfg.Storage.DataPath, logger))
	}

	a, err := agent.New(ctx, agent.Deps{
		Config:      cfg,
		Store:       stores.Documents,
		Generator:   gen,
		Host:        host,
		Publisher:   fanout,
		Embedder:    embedder,
		VectorIndex: stores.Vectors,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	addr, hub, err := server.Start(ctx, cfg, a, logger)
	if err != nil {
		return err
	}
	fanout.Add("websocket", hub)

	if cfg.Autonomy.Enabled {
		a.Start(ctx)
	}

	if cfg.Backup.Enabled {
		svc, err := backup.NewService(stores.Documents, backup.ConfigFrom(cfg.Backup), logger)
		if err != nil {
			return err
		}
		go func() {
			if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("backup service stopped")
			}
		}()
	}

	logger.Info().
		Str("addr", addr).
		Str("engine", cfg.Storage.Engine).
		Str("model", gen.GetModel()).
		Bool("autonomy", cfg.Autonomy.Enabled).
		Msgf("%s is awake", a.Name())

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("autonomy loop did not stop cleanly")
	}
	return nil
}
