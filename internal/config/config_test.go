package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Save original env and restore after test
	originalEnv := os.Environ()
	defer func() {
		os.Clearenv()
		for _, env := range originalEnv {
			// Parse and restore each env var
			for i, c := range env {
				if c == '=' {
					os.Setenv(env[:i], env[i+1:])
					break
				}
			}
		}
	}()

	// Clear env to test defaults
	os.Clearenv()

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"CatalogPath", cfg.CatalogPath, "data/clips.csv"},
		{"CatalogDriver", cfg.CatalogDriver, ""},
		{"CatalogTable", cfg.CatalogTable, "clips"},
		{"ScriptPath", cfg.ScriptPath, "data/script.txt"},
		{"OutputPath", cfg.OutputPath, "output/matches.csv"},
		{"IncludeScore", cfg.IncludeScore, true},
		{"MatchWorkers", cfg.MatchWorkers, 1},
		{"EmbeddingProvider", cfg.EmbeddingProvider, "openai"},
		{"EmbeddingModel", cfg.EmbeddingModel, "text-embedding-3-small"},
		{"EmbeddingDim", cfg.EmbeddingDim, 256},
		{"CacheProvider", cfg.CacheProvider, "none"},
		{"CacheTTL", cfg.CacheTTL, 604800},
		{"DataDir", cfg.DataDir, "data"},
		{"OutputDir", cfg.OutputDir, "output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MATCH_WORKERS", "4")
	t.Setenv("EMBEDDING_PROVIDER", "hash")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.MatchWorkers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.MatchWorkers)
	}
	if cfg.EmbeddingProvider != "hash" {
		t.Errorf("expected embedding provider 'hash', got %s", cfg.EmbeddingProvider)
	}
}

func TestTableAllowed(t *testing.T) {
	t.Setenv("CATALOG_TABLE", "clips")
	t.Setenv("CATALOG_TABLES", "arcane, season2")
	cfg := Load()

	tests := []struct {
		table string
		want  bool
	}{
		{"clips", true},
		{"arcane", true},
		{"season2", true},
		{"users", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := cfg.TableAllowed(tt.table); got != tt.want {
			t.Errorf("TableAllowed(%q) = %v, want %v", tt.table, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		EmbeddingProvider: "hash",
		EmbeddingDim:      64,
		CacheProvider:     "none",
		MatchWorkers:      1,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid hash config", func(c *Config) {}, false},
		{"openai without key", func(c *Config) { c.EmbeddingProvider = "openai" }, true},
		{"openai with key", func(c *Config) { c.EmbeddingProvider = "openai"; c.OpenAIKey = "sk-test" }, false},
		{"unknown provider", func(c *Config) { c.EmbeddingProvider = "bert" }, true},
		{"zero dim", func(c *Config) { c.EmbeddingDim = 0 }, true},
		{"redis without addr", func(c *Config) { c.CacheProvider = "redis" }, true},
		{"redis with addr", func(c *Config) { c.CacheProvider = "redis"; c.RedisAddr = "localhost:6379" }, false},
		{"unknown cache", func(c *Config) { c.CacheProvider = "memcached" }, true},
		{"sql catalog without dsn", func(c *Config) { c.CatalogDriver = "postgres" }, true},
		{"sqlite catalog", func(c *Config) { c.CatalogDriver = "sqlite"; c.CatalogDSN = "clips.db" }, false},
		{"unknown catalog driver", func(c *Config) { c.CatalogDriver = "mysql"; c.CatalogDSN = "x" }, true},
		{"no workers", func(c *Config) { c.MatchWorkers = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
