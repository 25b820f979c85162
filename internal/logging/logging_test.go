package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/animus/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestJSONFormatWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, false, &buf)

	Component(logger, "scheduler").Info().Str("rung", "dream").Msg("thought fired")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "scheduler", line["component"])
	assert.Equal(t, "dream", line["rung"])
	assert.Equal(t, "thought fired", line["message"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(config.LoggingConfig{Level: "warn", Format: "json"}, true, &buf)

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	logger.Warn().Msg("shown")
	assert.NotZero(t, buf.Len())
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "animus.log")
	var buf bytes.Buffer
	logger := newWithWriter(config.LoggingConfig{
		Level: "info", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1,
	}, true, &buf)

	logger.Info().Msg("persisted")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "persisted")
	assert.Contains(t, buf.String(), "persisted")
}
