package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCache is a mock implementation of the Cache interface for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetVectors(ctx context.Context, keys []string) ([][]float32, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockCache) SetVectors(ctx context.Context, keys []string, vecs [][]float32, ttl time.Duration) error {
	args := m.Called(ctx, keys, vecs, ttl)
	return args.Error(0)
}

func (m *MockCache) InvalidateModel(ctx context.Context, model string) (int, error) {
	args := m.Called(ctx, model)
	return args.Int(0), args.Error(1)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
