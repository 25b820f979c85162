// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/scrypster/animus/internal/config"
)

// New builds a logger from cfg. Console output is human readable unless the
// format is json (the default in production). When a log file is configured
// every line is also written, as JSON, to a size-rotated file.
func New(cfg config.LoggingConfig, production bool) zerolog.Logger {
	return newWithWriter(cfg, production, os.Stderr)
}

func newWithWriter(cfg config.LoggingConfig, production bool, stderr io.Writer) zerolog.Logger {
	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "console"
		if production {
			format = "json"
		}
	}

	var out io.Writer = stderr
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotator)
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
