package cache

import (
	"context"
	"time"
)

// Cache stores embedding vectors keyed by an opaque string.
type Cache interface {
	// GetVectors looks up keys in one round trip.
	// The result has one entry per key; misses are nil.
	GetVectors(ctx context.Context, keys []string) ([][]float32, error)

	// SetVectors stores vecs[i] under keys[i] with TTL
	SetVectors(ctx context.Context, keys []string, vecs [][]float32, ttl time.Duration) error

	// InvalidateModel removes every cached vector of an embedding model
	InvalidateModel(ctx context.Context, model string) (int, error)

	// Close closes the cache connection
	Close() error
}

// Key builds the cache key for a text hash under a model namespace.
func Key(model, textHash string) string {
	return model + ":" + textHash
}
