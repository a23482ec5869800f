package engine

import (
	"context"
	"errors"
	"time"

	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
)

// Lifecycle state machine per record:
//
//	active  -> trash()   -> trashed   (reversible)
//	trashed -> restore() -> active
//	trashed -> purge()   -> gone      (irreversible)
//	active  -> delete()  -> gone      (kinds without a trash stage)
//
// trash() on a trashed record and restore() on an active record are no-op
// successes. Ownership is re-verified on every transition, since trashed
// records may be acted on long after creation.

// applyTrash moves a record to trashed. The second return is false when
// the record is already trashed and nothing should be written.
func applyTrash(rec store.Record, now int64) (store.Record, bool) {
	if rec.State == models.StateTrashed {
		return rec, false
	}
	rec.State = models.StateTrashed
	rec.TrashedAt = now
	rec.Version++
	rec.UpdatedAt = now
	return rec, true
}

// applyRestore moves a trashed record back to active, clearing TrashedAt
// and stamping RestoredAt. False means the record was already active.
func applyRestore(rec store.Record, now int64) (store.Record, bool) {
	if rec.State == models.StateActive {
		return rec, false
	}
	rec.State = models.StateActive
	rec.TrashedAt = 0
	rec.RestoredAt = now
	rec.Version++
	rec.UpdatedAt = now
	return rec, true
}

func (e *Engine) trashRecord(ctx context.Context, kind models.Kind, id string, ownerId string) error {
	return e.transition(ctx, kind, id, ownerId, eventTrashed, applyTrash)
}

func (e *Engine) restoreRecord(ctx context.Context, kind models.Kind, id string, ownerId string) error {
	return e.transition(ctx, kind, id, ownerId, eventRestored, applyRestore)
}

// transition runs a soft-delete state change through the same
// compare-and-swap loop as updates: losing a race against another writer
// just means re-reading and re-applying, since trash and restore are
// idempotent by definition.
func (e *Engine) transition(
	ctx context.Context,
	kind models.Kind,
	id string,
	ownerId string,
	eventType string,
	apply func(store.Record, int64) (store.Record, bool),
) error {
	for {
		select {
		case <-ctx.Done():
			return &BackendUnavailableError{Err: ctx.Err()}
		default:
		}

		rec, err := e.Store.Get(ctx, kind, id)
		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return &NotFoundError{Kind: kind, Id: id}
			}
			return &BackendUnavailableError{Err: err}
		}
		if rec.OwnerId != ownerId {
			return &UnauthorizedError{Kind: kind, Id: id}
		}

		newRec, changed := apply(rec, time.Now().Unix())
		if !changed {
			return nil
		}

		stored, err := e.Store.PutIfVersion(ctx, newRec, rec.Version)
		if err != nil {
			var mismatch *store.VersionMismatchError
			if errors.As(err, &mismatch) {
				continue
			}
			if errors.Is(err, store.ErrItemNotFound) {
				return &NotFoundError{Kind: kind, Id: id}
			}
			return &BackendUnavailableError{Err: err}
		}

		e.afterWrite(stored, eventType)
		return nil
	}
}

// purgeRecord physically removes a record. requireTrashed distinguishes
// purge() (photos: trash first) from delete() (kinds with no trash stage).
// Purge is terminal: every later operation on the id sees NotFoundError.
func (e *Engine) purgeRecord(ctx context.Context, kind models.Kind, id string, ownerId string, requireTrashed bool) error {
	rec, err := e.Store.Get(ctx, kind, id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return &NotFoundError{Kind: kind, Id: id}
		}
		return &BackendUnavailableError{Err: err}
	}
	if rec.OwnerId != ownerId {
		return &UnauthorizedError{Kind: kind, Id: id}
	}
	if requireTrashed && rec.State != models.StateTrashed {
		return &ValidationError{Code: "NOT_TRASHED", Message: "record must be trashed before it can be purged"}
	}

	if err := e.Store.Purge(ctx, kind, id); err != nil {
		return &BackendUnavailableError{Err: err}
	}

	// Purge is terminal: the cache entry has to be gone before the purge
	// reports success, otherwise a read could keep serving the purged
	// record until its TTL expires. Only the broadcast stays detached.
	if err := e.Cache.InvalidateRecord(ctx, kind, id); err != nil {
		return &BackendUnavailableError{Err: err}
	}

	e.afterPurge(kind, id, ownerId)
	return nil
}
