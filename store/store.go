package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/memora-app/memora/models"
)

// Record is the kind-agnostic persisted form of an envelope. The payload
// travels as raw JSON so the store does not care which entity kind it is
// carrying. Timestamps are unix seconds; zero means absent.
type Record struct {
	Kind       models.Kind
	Id         string
	OwnerId    string
	Version    int64
	State      models.State
	Payload    []byte
	UsageCount int64
	CreatedAt  int64
	UpdatedAt  int64
	TrashedAt  int64
	RestoredAt int64
}

// ListFilter selects which lifecycle states ListByOwner returns.
// Purged records are physically gone and never appear.
type ListFilter int

const (
	FilterActive ListFilter = iota
	FilterTrashed
	FilterAll
)

// ContentStore is the narrow backend contract the engine consumes.
// PutIfVersion is the compare-and-swap primitive: the write commits only
// if the stored version still equals expectedVersion (0 = must not exist
// yet). CreateUnique provisions at most one record per (kind, owner, key)
// and hands the loser of a race the winner's record instead of an error.
type ContentStore interface {
	Get(ctx context.Context, kind models.Kind, id string) (Record, error)
	PutIfVersion(ctx context.Context, rec Record, expectedVersion int64) (Record, error)
	CreateUnique(ctx context.Context, rec Record, uniquenessKey string) (Record, bool, error)
	ListByOwner(ctx context.Context, kind models.Kind, ownerId string, filter ListFilter) ([]Record, error)
	ListTrashedBefore(ctx context.Context, kind models.Kind, cutoff int64) ([]Record, error)
	IncrementCounter(ctx context.Context, kind models.Kind, id string, field string, delta int64) (int64, error)
	Purge(ctx context.Context, kind models.Kind, id string) error
}

// Custom error types for clarity
var ErrItemNotFound = errors.New("item does not exist")

// VersionMismatchError is returned by PutIfVersion when the stored version
// no longer matches the expected one. Actual carries the version the
// backend holds at the time of the failed write.
type VersionMismatchError struct {
	Actual int64
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("version mismatch: stored version is %d", e.Actual)
}
