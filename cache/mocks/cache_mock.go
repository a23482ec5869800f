package mocks

import (
	"context"

	"github.com/memora-app/memora/models"
	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Publish(ctx context.Context, channel string, message []byte) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *MockCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

func (m *MockCache) GetRecord(ctx context.Context, kind models.Kind, id string) ([]byte, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) SetRecord(ctx context.Context, kind models.Kind, id string, data []byte) error {
	args := m.Called(ctx, kind, id, data)
	return args.Error(0)
}

func (m *MockCache) InvalidateRecord(ctx context.Context, kind models.Kind, id string) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}
