package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clipmatch/internal/catalog"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadClips(ctx context.Context, table string) ([]catalog.ClipRecord, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ClipRecord), args.Error(1)
}

func (m *MockStore) ImportClips(ctx context.Context, table string, clips []catalog.ClipRecord) error {
	args := m.Called(ctx, table, clips)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
