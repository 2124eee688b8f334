package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"clipmatch/internal/cache"
	"clipmatch/internal/config"
	"clipmatch/internal/embeddings"
	"clipmatch/internal/logger"
	"clipmatch/internal/pipeline"
	"clipmatch/internal/queue"
	"clipmatch/internal/store"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Embedder embeddings.Embedder
	Model    string
	Cache    cache.Cache
	Store    store.Store // nil unless CATALOG_DRIVER is set
	Queue    queue.Queue // nil unless QUEUE_URL is set

	nc *nats.Conn
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	return BuildWith(cfg, log)
}

// BuildWith wires components from an already loaded configuration.
func BuildWith(cfg config.Config, log *slog.Logger) (Deps, error) {
	if err := cfg.Validate(); err != nil {
		return Deps{}, fmt.Errorf("invalid configuration: %w", err)
	}

	c := buildCache(cfg, log)
	embedder, model, err := buildEmbedder(cfg, c, log)
	if err != nil {
		_ = c.Close()
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	st, err := buildStore(cfg, log)
	if err != nil {
		_ = c.Close()
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	d := Deps{
		Config:   cfg,
		Log:      log,
		Embedder: embedder,
		Model:    model,
		Cache:    c,
		Store:    st,
	}
	if cfg.QueueURL != "" {
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			d.Close()
			return Deps{}, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		d.nc = nc
		d.Queue = queue.NewNATS(log, nc)
	}
	return d, nil
}

// Runner returns a pipeline runner configured from d.
func (d Deps) Runner() *pipeline.Runner {
	return &pipeline.Runner{
		Embedder:       d.Embedder,
		Store:          d.Store,
		Log:            d.Log,
		Workers:        d.Config.MatchWorkers,
		MaxScriptBytes: d.Config.MaxScriptBytes,
	}
}

// Close releases connections opened by Build.
func (d Deps) Close() {
	if d.nc != nil {
		d.nc.Close()
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Log.Warn("store close failed", "err", err)
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Log.Warn("cache close failed", "err", err)
		}
	}
}

func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	if cfg.CacheProvider != "redis" {
		return cache.NewNoOpCache()
	}
	rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable; embedding cache disabled", "addr", cfg.RedisAddr, "err", err)
		return cache.NewNoOpCache()
	}
	log.Info("using Redis embedding cache", "addr", cfg.RedisAddr)
	return rc
}

func buildEmbedder(cfg config.Config, c cache.Cache, log *slog.Logger) (embeddings.Embedder, string, error) {
	var (
		inner embeddings.Embedder
		model string
	)
	switch cfg.EmbeddingProvider {
	case "openai":
		e, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		inner, model = e, e.Model()
		log.Info("using OpenAI embedder", "model", model)
	case "hash":
		e := embeddings.NewHashEmbedder(cfg.EmbeddingDim)
		inner, model = e, fmt.Sprintf("%s-%d", e.Model(), cfg.EmbeddingDim)
		log.Info("using hash embedder", "dim", cfg.EmbeddingDim)
	default:
		return nil, "", fmt.Errorf("invalid EMBEDDING_PROVIDER: %s (valid options: openai, hash)", cfg.EmbeddingProvider)
	}
	if _, noop := c.(*cache.NoOpCache); noop {
		return inner, model, nil
	}
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	return embeddings.NewCachedEmbedder(inner, c, model, ttl, log), model, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	if cfg.CatalogDriver == "" {
		return nil, nil
	}
	st, err := store.Open(cfg.CatalogDriver, cfg.CatalogDSN)
	if err != nil {
		return nil, err
	}
	log.Info("using SQL catalog store", "driver", cfg.CatalogDriver)
	return st, nil
}
