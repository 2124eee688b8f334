package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Key prefix for cached embedding vectors
	cacheKeyPrefix = "emb:"
)

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{
		client: client,
	}, nil
}

// GetVectors fetches all keys with a single MGET
func (c *RedisCache) GetVectors(ctx context.Context, keys []string) ([][]float32, error) {
	out := make([][]float32, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = cacheKeyPrefix + k
	}
	vals, err := c.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // miss
		}
		var vec []float32
		if err := json.Unmarshal([]byte(s), &vec); err != nil {
			// Corrupt entry; treat as a miss so it gets rewritten.
			continue
		}
		out[i] = vec
	}
	return out, nil
}

// SetVectors stores vectors in one pipeline
func (c *RedisCache) SetVectors(ctx context.Context, keys []string, vecs [][]float32, ttl time.Duration) error {
	if len(keys) != len(vecs) {
		return fmt.Errorf("cache: %d keys for %d vectors", len(keys), len(vecs))
	}
	if len(keys) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for i, k := range keys {
		data, err := json.Marshal(vecs[i])
		if err != nil {
			return err
		}
		pipe.Set(ctx, cacheKeyPrefix+k, data, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateModel removes all cached vectors for a model and reports how many
func (c *RedisCache) InvalidateModel(ctx context.Context, model string) (int, error) {
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+Key(model, "*"), 0).Iterator()

	pipe := c.client.Pipeline()
	count := 0

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		count++
	}

	if err := iter.Err(); err != nil {
		return 0, err
	}

	if count > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, err
		}
	}

	return count, nil
}

// Close closes the cache connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
