package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used when no cache is configured or Redis is unavailable - all operations
// succeed but nothing is stored (always cache miss).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetVectors reports a miss for every key
func (c *NoOpCache) GetVectors(ctx context.Context, keys []string) ([][]float32, error) {
	return make([][]float32, len(keys)), nil
}

// SetVectors does nothing and always succeeds
func (c *NoOpCache) SetVectors(ctx context.Context, keys []string, vecs [][]float32, ttl time.Duration) error {
	return nil
}

// InvalidateModel does nothing and always succeeds
func (c *NoOpCache) InvalidateModel(ctx context.Context, model string) (int, error) {
	return 0, nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
