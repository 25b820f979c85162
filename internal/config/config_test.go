package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequired sets the minimum environment for a valid configuration.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ANIMUS_LLM_API_KEY", "test-key")
}

func TestLoadConfig_DefaultHostIsLocalhost(t *testing.T) {
	setRequired(t)
	_ = os.Unsetenv("ANIMUS_HOST")

	cfg, err := loadFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "Default host must be 127.0.0.1 for security")
	assert.Equal(t, 6363, cfg.Server.Port)
	assert.Equal(t, EngineSQLite, cfg.Storage.Engine)
	assert.Equal(t, 5*time.Second, cfg.Autonomy.TickInterval)
	assert.Equal(t, []string{"localhost:3000", "localhost:5173"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ANIMUS_HOST", "0.0.0.0")
	t.Setenv("ANIMUS_STORAGE_ENGINE", "badger")
	t.Setenv("ANIMUS_TICK_INTERVAL", "2s")
	t.Setenv("ANIMUS_ALLOWED_ORIGINS", "example.com")

	cfg, err := loadFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, EngineBadger, cfg.Storage.Engine)
	assert.Equal(t, 2*time.Second, cfg.Autonomy.TickInterval)
	assert.Equal(t, []string{"example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_MissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("ANIMUS_LLM_API_KEY", "")
	t.Setenv("ANIMUS_LLM_PROVIDER", ProviderOpenAI)

	_, err := loadFromEnvironment()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadConfig_OllamaNeedsNoKey(t *testing.T) {
	t.Setenv("ANIMUS_LLM_API_KEY", "")
	t.Setenv("ANIMUS_LLM_PROVIDER", ProviderOllama)

	_, err := loadFromEnvironment()
	assert.NoError(t, err)
}

func TestValidate_RejectsUnknownEngine(t *testing.T) {
	setRequired(t)
	t.Setenv("ANIMUS_STORAGE_ENGINE", "cassandra")

	_, err := loadFromEnvironment()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "cassandra")
}

func TestValidate_ProductionRequiresToken(t *testing.T) {
	setRequired(t)
	t.Setenv("ANIMUS_SECURITY_MODE", ModeProduction)
	t.Setenv("ANIMUS_API_TOKEN", "")

	_, err := loadFromEnvironment()
	assert.ErrorIs(t, err, ErrInvalid)

	t.Setenv("ANIMUS_API_TOKEN", "secret")
	cfg, err := loadFromEnvironment()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestValidate_PostgresNeedsDSN(t *testing.T) {
	setRequired(t)
	t.Setenv("ANIMUS_STORAGE_ENGINE", EnginePostgres)
	t.Setenv("ANIMUS_POSTGRES_DSN", "")

	_, err := loadFromEnvironment()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDefaultTuningIsValid(t *testing.T) {
	assert.Empty(t, DefaultTuning().validate())
}

func TestTuningFileOverridesOnlyPresentKeys(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
affect:
  refuse_dominance: 0.75
ladder:
  dream_cooldown: 15m
quirks:
  cryptic_on_chance: 0.5
`), 0o644))
	t.Setenv("ANIMUS_TUNING_FILE", path)

	cfg, err := loadFromEnvironment()
	require.NoError(t, err)

	assert.InDelta(t, 0.75, cfg.Tuning.Affect.RefuseDominance, 1e-9)
	assert.Equal(t, 15*time.Minute, cfg.Tuning.Ladder.DreamCooldown)
	assert.InDelta(t, 0.5, cfg.Tuning.Quirks.CrypticOnChance, 1e-9)

	// Untouched values keep their defaults.
	def := DefaultTuning()
	assert.InDelta(t, def.Affect.RefusePleasure, cfg.Tuning.Affect.RefusePleasure, 1e-9)
	assert.Equal(t, def.Ladder.DreamIdle, cfg.Tuning.Ladder.DreamIdle)
	assert.Len(t, cfg.Tuning.Affect.Interactions, len(def.Affect.Interactions))
}

func TestTuningFileLeavesBaseUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
affect:
  secondary_baselines:
    contempt: 0.9
  interactions:
    shouted:
      arousal: 0.2
drives:
  baselines:
    curiosity: 0.7
`), 0o644))

	base := DefaultTuning()
	merged, err := LoadTuningFile(path, base)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, merged.Affect.SecondaryBaselines["contempt"], 1e-9)
	assert.InDelta(t, 0.7, merged.Drives.Baselines["curiosity"], 1e-9)
	assert.Contains(t, merged.Affect.Interactions, "shouted")

	def := DefaultTuning()
	assert.Equal(t, def.Affect.SecondaryBaselines, base.Affect.SecondaryBaselines)
	assert.Equal(t, def.Drives.Baselines, base.Drives.Baselines)
	assert.NotContains(t, base.Affect.Interactions, "shouted")
}

func TestTuningCloneIsDeep(t *testing.T) {
	base := DefaultTuning()
	c := base.Clone()
	c.Affect.Interactions["insult"].Secondary["contempt"] = 0.9
	c.Quirks.Fascinations[0] = "changed"

	assert.InDelta(t, 0.1, base.Affect.Interactions["insult"].Secondary["contempt"], 1e-9)
	assert.Equal(t, "entropy", base.Quirks.Fascinations[0])
}

func TestTuningFileRejectsBadProbability(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quirks:\n  cryptic_off_chance: 1.5\n"), 0o644))
	t.Setenv("ANIMUS_TUNING_FILE", path)

	_, err := loadFromEnvironment()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "cryptic_off_chance")
}

func TestTuningFileMissing(t *testing.T) {
	setRequired(t)
	t.Setenv("ANIMUS_TUNING_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := loadFromEnvironment()
	assert.Error(t, err)
}
