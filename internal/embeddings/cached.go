package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"clipmatch/internal/cache"
)

// CachedEmbedder memoises vectors of an inner Embedder in a cache.Cache.
// Cache failures are logged and fall through to the inner embedder.
type CachedEmbedder struct {
	inner Embedder
	cache cache.Cache
	model string
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedEmbedder wraps inner. model namespaces the keys so vectors of
// different models never mix.
func NewCachedEmbedder(inner Embedder, c cache.Cache, model string, ttl time.Duration, log *slog.Logger) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c, model: model, ttl: ttl, log: log}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = e.key(t)
	}

	out := make([]Vector, len(texts))
	hits, err := e.cache.GetVectors(ctx, keys)
	if err != nil {
		e.log.Warn("embedding cache read failed", "err", err)
		hits = nil
	}

	var missIdx []int
	var missTexts []string
	for i := range texts {
		if i < len(hits) && hits[i] != nil {
			out[i] = hits[i]
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := e.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	missKeys := make([]string, len(missIdx))
	toStore := make([][]float32, len(missIdx))
	for j, i := range missIdx {
		out[i] = fresh[j]
		missKeys[j] = keys[i]
		toStore[j] = fresh[j]
	}
	if err := e.cache.SetVectors(ctx, missKeys, toStore, e.ttl); err != nil {
		e.log.Warn("embedding cache write failed", "err", err)
	}
	e.log.Debug("embedded texts", "cached", len(texts)-len(missTexts), "fresh", len(missTexts))
	return out, nil
}

func (e *CachedEmbedder) key(text string) string {
	return cache.Key(e.model, strconv.FormatUint(xxhash.Sum64String(text), 16))
}
