package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for dbquery-engine.
// Values come from config.yaml with environment variable overrides.
// Secrets (store password, generation API key) are env-only.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Store is the engine-owned metadata database (registry + schema cache).
	Store StoreConfig `yaml:"store"`

	// Query controls gatekeeping and execution against target databases.
	Query QueryConfig `yaml:"query"`

	// Pools controls the per-connection pool cache.
	Pools PoolConfig `yaml:"pools"`

	// AI configures the natural-language generation service.
	AI AIConfig `yaml:"ai"`
}

// StoreConfig holds the engine metadata database settings.
type StoreConfig struct {
	Host           string `yaml:"host" env:"STORE_PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"STORE_PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"STORE_PGUSER" env-default:"dbquery"`
	Password       string `yaml:"-" env:"STORE_PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"STORE_PGDATABASE" env-default:"dbquery_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"STORE_PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"STORE_PGMAX_CONNECTIONS" env-default:"10"`
	MigrationsPath string `yaml:"migrations_path" env:"STORE_MIGRATIONS_PATH" env-default:"./migrations"`
}

// URL renders the store settings as a pgx connection string.
func (s *StoreConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Database, s.SSLMode)
}

// QueryConfig bounds query execution against target databases.
type QueryConfig struct {
	// ExecutionTimeoutSeconds cancels in-flight queries that run longer.
	ExecutionTimeoutSeconds int `yaml:"execution_timeout_seconds" env:"QUERY_EXECUTION_TIMEOUT_SECONDS" env-default:"30"`
}

// ExecutionTimeout returns the configured timeout as a duration.
func (q *QueryConfig) ExecutionTimeout() time.Duration {
	return time.Duration(q.ExecutionTimeoutSeconds) * time.Second
}

// PoolConfig bounds each cached connection pool.
type PoolConfig struct {
	MaxConns              int32 `yaml:"max_conns" env:"POOL_MAX_CONNS" env-default:"10"`
	MinConns              int32 `yaml:"min_conns" env:"POOL_MIN_CONNS" env-default:"0"`
	ConnectTimeoutSeconds int   `yaml:"connect_timeout_seconds" env:"POOL_CONNECT_TIMEOUT_SECONDS" env-default:"10"`
	IdleTimeoutMinutes    int   `yaml:"idle_timeout_minutes" env:"POOL_IDLE_TIMEOUT_MINUTES" env-default:"5"`
	MaxLifetimeMinutes    int   `yaml:"max_lifetime_minutes" env:"POOL_MAX_LIFETIME_MINUTES" env-default:"60"`
}

// ConnectTimeout returns the pool connect timeout as a duration.
func (p *PoolConfig) ConnectTimeout() time.Duration {
	return time.Duration(p.ConnectTimeoutSeconds) * time.Second
}

// IdleTimeout returns the pool idle timeout as a duration.
func (p *PoolConfig) IdleTimeout() time.Duration {
	return time.Duration(p.IdleTimeoutMinutes) * time.Minute
}

// MaxLifetime returns the pool connection lifetime as a duration.
func (p *PoolConfig) MaxLifetime() time.Duration {
	return time.Duration(p.MaxLifetimeMinutes) * time.Minute
}

// AIConfig configures the external generation service.
type AIConfig struct {
	// Provider selects the client: "openai" (any OpenAI-compatible
	// endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	// BaseURL is the API endpoint; empty uses the provider default.
	BaseURL string `yaml:"base_url" env:"AI_BASE_URL" env-default:""`
	Model   string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	// APIKey is env-only. Generation endpoints stay disabled when unset.
	APIKey         string  `yaml:"-" env:"AI_API_KEY"`
	Temperature    float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.3"`
	MaxTokens      int     `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"1024"`
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"60"`
}

// Timeout returns the generation call timeout as a duration.
func (a *AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// IsConfigured reports whether generation endpoints can be served.
func (a *AIConfig) IsConfigured() bool {
	return a.APIKey != ""
}

// Load reads configuration from config.yaml (if present) with
// environment variable overrides.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		// No YAML file; environment only.
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown ai provider %q (want openai or anthropic)", c.AI.Provider)
	}
	if c.Query.ExecutionTimeoutSeconds <= 0 {
		return fmt.Errorf("query execution timeout must be positive")
	}
	if c.Pools.MaxConns <= 0 {
		return fmt.Errorf("pool max_conns must be positive")
	}
	return nil
}
