package mocks

import (
	"context"

	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, kind models.Kind, id string) (store.Record, error) {
	args := m.Called(ctx, kind, id)
	return args.Get(0).(store.Record), args.Error(1)
}

func (m *MockStore) PutIfVersion(ctx context.Context, rec store.Record, expectedVersion int64) (store.Record, error) {
	args := m.Called(ctx, rec, expectedVersion)
	return args.Get(0).(store.Record), args.Error(1)
}

func (m *MockStore) CreateUnique(ctx context.Context, rec store.Record, uniquenessKey string) (store.Record, bool, error) {
	args := m.Called(ctx, rec, uniquenessKey)
	return args.Get(0).(store.Record), args.Bool(1), args.Error(2)
}

func (m *MockStore) ListByOwner(ctx context.Context, kind models.Kind, ownerId string, filter store.ListFilter) ([]store.Record, error) {
	args := m.Called(ctx, kind, ownerId, filter)
	return args.Get(0).([]store.Record), args.Error(1)
}

func (m *MockStore) ListTrashedBefore(ctx context.Context, kind models.Kind, cutoff int64) ([]store.Record, error) {
	args := m.Called(ctx, kind, cutoff)
	return args.Get(0).([]store.Record), args.Error(1)
}

func (m *MockStore) IncrementCounter(ctx context.Context, kind models.Kind, id string, field string, delta int64) (int64, error) {
	args := m.Called(ctx, kind, id, field, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Purge(ctx context.Context, kind models.Kind, id string) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}
