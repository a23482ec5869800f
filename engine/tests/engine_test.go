package engine_test

import (
	"context"
	"encoding/json"
	"testing"

	cachemocks "github.com/memora-app/memora/cache/mocks"
	"github.com/memora-app/memora/engine"
	"github.com/memora-app/memora/store"
	"github.com/memora-app/memora/store/memory"
	storemocks "github.com/memora-app/memora/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// permissiveCache accepts any cache traffic. The engine's cache writes and
// change broadcasts are asynchronous best-effort side effects; tests that
// care about them assert explicitly, everything else just lets them run.
func permissiveCache() *cachemocks.MockCache {
	mockCache := new(cachemocks.MockCache)
	mockCache.On("GetRecord", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	mockCache.On("SetRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	mockCache.On("InvalidateRecord", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	mockCache.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return mockCache
}

// setupMemoryEngine runs the engine against the real in-memory store so
// compare-and-swap behavior is exercised for real, not mocked.
func setupMemoryEngine(t *testing.T) (*engine.Engine, *memory.MemoryContentStore) {
	memStore := memory.NewMemoryContentStore()
	return engine.NewEngine(memStore, permissiveCache()), memStore
}

// setupMockEngine is for interaction tests: which store calls happen, and
// which must not.
func setupMockEngine(t *testing.T) (*engine.Engine, *storemocks.MockStore) {
	mockStore := new(storemocks.MockStore)
	return engine.NewEngine(mockStore, permissiveCache()), mockStore
}

func int64Ptr(v int64) *int64 {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func mustPayload(t *testing.T, payload any) []byte {
	data, err := json.Marshal(payload)
	assert.NoError(t, err)
	return data
}

// seedRecord writes a record straight into the store, bypassing the
// engine, for tests that need full control over versions and timestamps.
func seedRecord(t *testing.T, memStore *memory.MemoryContentStore, rec store.Record) {
	_, err := memStore.PutIfVersion(context.Background(), rec, 0)
	assert.NoError(t, err)
}
