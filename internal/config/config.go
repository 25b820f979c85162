// Package config provides configuration management for the agent.
// It loads settings from environment variables with the ANIMUS_ prefix
// (after reading an optional .env file) and provides sensible defaults for
// every option. Personality tuning constants live in Tuning and may be
// overridden from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/scrypster/animus/internal/attribution"
)

// ErrInvalid is returned (wrapped) when configuration values are impossible.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration settings for the agent process.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Security SecurityConfig
	Backup   BackupConfig
	Autonomy AutonomyConfig
	Logging  LoggingConfig
	Persona  PersonaConfig

	// Tuning is not read from the environment; see ANIMUS_TUNING_FILE.
	Tuning Tuning
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port           int      `env:"ANIMUS_PORT" envDefault:"6363"`
	Host           string   `env:"ANIMUS_HOST" envDefault:"127.0.0.1"`
	AllowedOrigins []string `env:"ANIMUS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"localhost:3000,localhost:5173"`
}

// Storage engines understood by the backend factory.
const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
	EngineBadger   = "badger"
	EngineRedis    = "redis"
	EngineFile     = "file"
)

// StorageConfig contains persistence configuration.
type StorageConfig struct {
	Engine        string `env:"ANIMUS_STORAGE_ENGINE" envDefault:"sqlite"`
	DataPath      string `env:"ANIMUS_DATA_PATH" envDefault:"./data"`
	PostgresDSN   string `env:"ANIMUS_POSTGRES_DSN"`
	RedisAddr     string `env:"ANIMUS_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"ANIMUS_REDIS_PASSWORD"`
	RedisDB       int    `env:"ANIMUS_REDIS_DB" envDefault:"0"`
	// SemanticMemory enables embedding-based fact retrieval when the engine
	// has a vector index (sqlite, postgres).
	SemanticMemory bool `env:"ANIMUS_SEMANTIC_MEMORY" envDefault:"true"`
}

// LLM providers understood by llm.NewGenerator.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// LLMConfig contains language-model collaborator configuration.
type LLMConfig struct {
	// Provider is "openai" for any OpenAI-compatible chat API (Groq by
	// default), "anthropic", or "ollama" for a local server.
	Provider       string        `env:"ANIMUS_LLM_PROVIDER" envDefault:"openai"`
	BaseURL        string        `env:"ANIMUS_LLM_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	APIKey         string        `env:"ANIMUS_LLM_API_KEY"`
	Model          string        `env:"ANIMUS_LLM_MODEL" envDefault:"llama-3.3-70b-versatile"`
	AnthropicURL   string        `env:"ANIMUS_ANTHROPIC_URL" envDefault:"https://api.anthropic.com/v1"`
	AnthropicModel string        `env:"ANIMUS_ANTHROPIC_MODEL" envDefault:"claude-haiku-4-5"`
	OllamaURL      string        `env:"ANIMUS_OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel    string        `env:"ANIMUS_OLLAMA_MODEL" envDefault:"qwen2.5:7b"`
	EmbeddingModel string        `env:"ANIMUS_EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
	Timeout        time.Duration `env:"ANIMUS_LLM_TIMEOUT" envDefault:"60s"`

	RequestsPerMinute  int           `env:"ANIMUS_LLM_REQUESTS_PER_MINUTE" envDefault:"30"`
	Burst              int           `env:"ANIMUS_LLM_BURST" envDefault:"5"`
	BreakerMaxFailures int           `env:"ANIMUS_LLM_BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerTimeout     time.Duration `env:"ANIMUS_LLM_BREAKER_TIMEOUT" envDefault:"30s"`
}

// Security modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// SecurityConfig contains authentication and request limiting settings.
type SecurityConfig struct {
	Mode           string  `env:"ANIMUS_SECURITY_MODE" envDefault:"development"`
	APIToken       string  `env:"ANIMUS_API_TOKEN"`
	RateLimitRPS   float64 `env:"ANIMUS_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"ANIMUS_RATE_LIMIT_BURST" envDefault:"10"`
}

// BackupConfig contains state snapshot configuration.
type BackupConfig struct {
	Enabled          bool          `env:"ANIMUS_BACKUP_ENABLED" envDefault:"false"`
	Interval         time.Duration `env:"ANIMUS_BACKUP_INTERVAL" envDefault:"24h"`
	Path             string        `env:"ANIMUS_BACKUP_PATH" envDefault:"./backups"`
	Verify           bool          `env:"ANIMUS_BACKUP_VERIFY" envDefault:"true"`
	RetentionHourly  int           `env:"ANIMUS_BACKUP_RETENTION_HOURLY" envDefault:"24"`
	RetentionDaily   int           `env:"ANIMUS_BACKUP_RETENTION_DAILY" envDefault:"7"`
	RetentionWeekly  int           `env:"ANIMUS_BACKUP_RETENTION_WEEKLY" envDefault:"4"`
	RetentionMonthly int           `env:"ANIMUS_BACKUP_RETENTION_MONTHLY" envDefault:"12"`
}

// AutonomyConfig contains background loop settings.
type AutonomyConfig struct {
	Enabled       bool          `env:"ANIMUS_AUTONOMY_ENABLED" envDefault:"true"`
	TickInterval  time.Duration `env:"ANIMUS_TICK_INTERVAL" envDefault:"5s"`
	TickTimeout   time.Duration `env:"ANIMUS_TICK_TIMEOUT" envDefault:"30s"`
	ActionTimeout time.Duration `env:"ANIMUS_ACTION_TIMEOUT" envDefault:"20s"`
	// SpoolEvents writes every broadcast to <DataPath>/events, where animus-tail
	// consumes them. Files accumulate when nothing is tailing.
	SpoolEvents bool `env:"ANIMUS_SPOOL_EVENTS" envDefault:"false"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `env:"ANIMUS_LOG_LEVEL" envDefault:"info"`
	// Format is "console" or "json"; empty picks by security mode.
	Format     string `env:"ANIMUS_LOG_FORMAT"`
	File       string `env:"ANIMUS_LOG_FILE"`
	MaxSizeMB  int    `env:"ANIMUS_LOG_MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"ANIMUS_LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"ANIMUS_LOG_MAX_AGE_DAYS" envDefault:"28"`
}

// PersonaConfig contains identity settings.
type PersonaConfig struct {
	Name        string `env:"ANIMUS_NAME" envDefault:"ANIMUS"`
	// CreatorName defaults to the git user name of whoever runs the agent.
	CreatorName string `env:"ANIMUS_CREATOR_NAME"`
	TuningFile  string `env:"ANIMUS_TUNING_FILE"`
	// OrganizeDir is the directory organize_files sorts; empty means ~/Downloads.
	OrganizeDir string `env:"ANIMUS_ORGANIZE_DIR"`
}

// LoadConfig reads .env (if present), parses the environment, applies the
// tuning override file, and validates the result.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}
	return loadFromEnvironment()
}

func loadFromEnvironment() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.Persona.CreatorName == "" {
		cfg.Persona.CreatorName = attribution.DetectCreator()
	}

	cfg.Tuning = DefaultTuning()
	if cfg.Persona.TuningFile != "" {
		t, err := LoadTuningFile(cfg.Persona.TuningFile, cfg.Tuning)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = t
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether production security applies.
func (c *Config) IsProduction() bool {
	return c.Security.Mode == ModeProduction
}

// Validate rejects impossible values. Missing collaborator configuration is
// reported here so the process fails fast at startup.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Server.Port))
	}

	switch c.Storage.Engine {
	case EngineSQLite, EngineBadger, EngineFile:
		if c.Storage.DataPath == "" {
			problems = append(problems, "data path is required")
		}
	case EnginePostgres:
		if c.Storage.PostgresDSN == "" {
			problems = append(problems, "ANIMUS_POSTGRES_DSN is required for the postgres engine")
		}
	case EngineRedis:
		if c.Storage.RedisAddr == "" {
			problems = append(problems, "ANIMUS_REDIS_ADDR is required for the redis engine")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage engine %q", c.Storage.Engine))
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			problems = append(problems, "ANIMUS_LLM_API_KEY is required for the openai provider")
		}
		if c.LLM.BaseURL == "" {
			problems = append(problems, "ANIMUS_LLM_BASE_URL is required for the openai provider")
		}
	case ProviderAnthropic:
		if c.LLM.APIKey == "" {
			problems = append(problems, "ANIMUS_LLM_API_KEY is required for the anthropic provider")
		}
	case ProviderOllama:
		if c.LLM.OllamaURL == "" {
			problems = append(problems, "ANIMUS_OLLAMA_URL is required for the ollama provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown LLM provider %q", c.LLM.Provider))
	}
	if c.LLM.Timeout <= 0 {
		problems = append(problems, "LLM timeout must be positive")
	}
	if c.LLM.RequestsPerMinute <= 0 || c.LLM.Burst <= 0 {
		problems = append(problems, "LLM rate limit must be positive")
	}

	switch c.Security.Mode {
	case ModeDevelopment:
	case ModeProduction:
		if c.Security.APIToken == "" {
			problems = append(problems, "ANIMUS_API_TOKEN is required in production mode")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown security mode %q", c.Security.Mode))
	}

	if c.Autonomy.TickInterval <= 0 || c.Autonomy.TickTimeout <= 0 || c.Autonomy.ActionTimeout <= 0 {
		problems = append(problems, "autonomy intervals must be positive")
	}
	if c.Backup.Enabled && c.Backup.Interval <= 0 {
		problems = append(problems, "backup interval must be positive")
	}

	problems = append(problems, c.Tuning.validate()...)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
