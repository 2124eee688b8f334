package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for every entry point.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxScriptBytes int64 `env:"MAX_SCRIPT_BYTES" envDefault:"1048576"` // 1MB

	// Catalog source: a CSV file, or a SQL table when CATALOG_DRIVER is set
	CatalogPath   string `env:"CATALOG_PATH" envDefault:"data/clips.csv"`
	CatalogDriver string `env:"CATALOG_DRIVER"` // "" (CSV), "postgres" or "sqlite"
	CatalogDSN    string `env:"CATALOG_DSN"`
	CatalogTable  string `env:"CATALOG_TABLE" envDefault:"clips"`
	// Extra tables HTTP callers may name; CATALOG_TABLE is always allowed.
	CatalogTables []string `env:"CATALOG_TABLES" envSeparator:","`

	// Script input and match output
	ScriptPath   string `env:"SCRIPT_PATH" envDefault:"data/script.txt"`
	OutputPath   string `env:"OUTPUT_PATH" envDefault:"output/matches.csv"`
	IncludeScore bool   `env:"INCLUDE_SCORE" envDefault:"true"`
	MatchWorkers int    `env:"MATCH_WORKERS" envDefault:"1"`

	// Embeddings
	EmbeddingProvider string `env:"EMBEDDING_PROVIDER" envDefault:"openai"` // "openai" or "hash" (offline, deterministic)
	OpenAIKey         string `env:"OPENAI_API_KEY"`
	EmbeddingModel    string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDim      int    `env:"EMBEDDING_DIM" envDefault:"256"` // hash provider only

	// Embedding cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "redis" or "none"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"604800"` // seconds, 7 days

	// Queue
	QueueURL string `env:"QUEUE_URL"`

	// Roots for paths named in queued jobs; job paths must stay inside them
	DataDir   string `env:"DATA_DIR" envDefault:"data"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"output"`

	// Clip library used by the maintenance commands
	ClipRoot string `env:"CLIP_ROOT"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// TableAllowed reports whether HTTP callers may read the catalog table name.
func (c Config) TableAllowed(name string) bool {
	if name == c.CatalogTable {
		return true
	}
	for _, t := range c.CatalogTables {
		if strings.TrimSpace(t) == name {
			return true
		}
	}
	return false
}

// Validate checks option values and provider requirements.
func (c Config) Validate() error {
	var errs []error
	switch c.EmbeddingProvider {
	case "openai":
		if c.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai"))
		}
	case "hash":
		if c.EmbeddingDim <= 0 {
			errs = append(errs, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.EmbeddingDim))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid EMBEDDING_PROVIDER: %s (valid options: openai, hash)", c.EmbeddingProvider))
	}
	switch c.CacheProvider {
	case "none", "":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when CACHE_PROVIDER=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: redis, none)", c.CacheProvider))
	}
	switch c.CatalogDriver {
	case "":
	case "postgres", "sqlite":
		if c.CatalogDSN == "" {
			errs = append(errs, fmt.Errorf("CATALOG_DSN is required when CATALOG_DRIVER=%s", c.CatalogDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid CATALOG_DRIVER: %s (valid options: postgres, sqlite)", c.CatalogDriver))
	}
	if c.MatchWorkers < 1 {
		errs = append(errs, fmt.Errorf("MATCH_WORKERS must be at least 1, got %d", c.MatchWorkers))
	}
	return errors.Join(errs...)
}
