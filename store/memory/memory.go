// Package memory provides a mutex-guarded in-process implementation of the
// store contract. It backs dev mode and the concurrency tests, where real
// compare-and-swap races have to be exercised against a live store rather
// than a mock.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
)

type MemoryContentStore struct {
	mu      sync.Mutex
	records map[string]store.Record // recordKey -> record
	guards  map[string]string       // guardKey -> record id
}

func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{
		records: make(map[string]store.Record),
		guards:  make(map[string]string),
	}
}

func recordKey(kind models.Kind, id string) string {
	return string(kind) + "#" + id
}

func guardKey(kind models.Kind, ownerId string, uniquenessKey string) string {
	return "UNIQ#" + string(kind) + "#" + ownerId + "#" + uniquenessKey
}

func copyRecord(rec store.Record) store.Record {
	cp := rec
	if rec.Payload != nil {
		cp.Payload = make([]byte, len(rec.Payload))
		copy(cp.Payload, rec.Payload)
	}
	return cp
}

func (memStore *MemoryContentStore) Get(ctx context.Context, kind models.Kind, id string) (store.Record, error) {
	memStore.mu.Lock()
	defer memStore.mu.Unlock()

	rec, ok := memStore.records[recordKey(kind, id)]
	if !ok {
		return store.Record{}, store.ErrItemNotFound
	}

	return copyRecord(rec), nil
}

func (memStore *MemoryContentStore) PutIfVersion(ctx context.Context, rec store.Record, expectedVersion int64) (store.Record, error) {
	memStore.mu.Lock()
	defer memStore.mu.Unlock()

	key := recordKey(rec.Kind, rec.Id)
	current, exists := memStore.records[key]

	if expectedVersion == 0 {
		if exists {
			return store.Record{}, &store.VersionMismatchError{Actual: current.Version}
		}
	} else {
		if !exists {
			return store.Record{}, store.ErrItemNotFound
		}
		if current.Version != expectedVersion {
			return store.Record{}, &store.VersionMismatchError{Actual: current.Version}
		}
	}

	memStore.records[key] = copyRecord(rec)
	return rec, nil
}

func (memStore *MemoryContentStore) CreateUnique(ctx context.Context, rec store.Record, uniquenessKey string) (store.Record, bool, error) {
	memStore.mu.Lock()
	defer memStore.mu.Unlock()

	gk := guardKey(rec.Kind, rec.OwnerId, uniquenessKey)
	if existingId, ok := memStore.guards[gk]; ok {
		if existing, ok := memStore.records[recordKey(rec.Kind, existingId)]; ok {
			return copyRecord(existing), false, nil
		}
		// Stale guard: the record it points at was purged.
		delete(memStore.guards, gk)
	}

	memStore.guards[gk] = rec.Id
	memStore.records[recordKey(rec.Kind, rec.Id)] = copyRecord(rec)
	return rec, true, nil
}

func (memStore *MemoryContentStore) ListByOwner(ctx context.Context, kind models.Kind, ownerId string, filter store.ListFilter) ([]store.Record, error) {
	memStore.mu.Lock()
	defer memStore.mu.Unlock()

	records := make([]store.Record, 0)
	for _, rec := range memStore.records {
		if rec.Kind != kind || rec.OwnerId != ownerId {
			continue
		}
		switch filter {
		case store.FilterActive:
			if rec.State != models.StateActive {
				continue
			}
		case store.FilterTrashed:
			if rec.State != models.StateTrashed {
				continue
			}
		}
		records = append(records, copyRecord(rec))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Id < records[j].Id
	})

	return records, nil
}

func (memStore *MemoryContentStore) ListTrashedBefore(ctx context.Context, kind models.Kind, cutoff int64) ([]store.Record, error) {
	memStore.mu.Lock()
	defer memStore.mu.Unlock()

	records := make([]store.Record, 0)
	for _, rec := range memStore.records {
		if rec.Kind != kind || rec.State != models.StateTrashed {
			continue
		}
		if rec.TrashedAt > cutoff {
			continue
		}
		records = append(records, copyRecord(rec))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Id < records[j].Id
	})

	return records, nil
}

func (memStore *MemoryContentStore) IncrementCounter(ctx context.Context, kind models.Kind, id string, field string, delta int64) (int64, error) {
	memStore.mu.Lock()
	defer memStore.mu.Unlock()

	key := recordKey(kind, id)
	rec, ok := memStore.records[key]
	if !ok {
		return 0, store.ErrItemNotFound
	}

	// UsageCount is the only counter field the engine uses today.
	rec.UsageCount += delta
	memStore.records[key] = rec
	return rec.UsageCount, nil
}

func (memStore *MemoryContentStore) Purge(ctx context.Context, kind models.Kind, id string) error {
	memStore.mu.Lock()
	defer memStore.mu.Unlock()

	delete(memStore.records, recordKey(kind, id))
	return nil
}
