package engine

import (
	"context"
	"errors"

	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
)

// PhotoPatch is a field-level patch; nil fields are left untouched.
type PhotoPatch struct {
	Caption    *string
	TakenAt    *int64
	TripId     *string
	LocationId *string
}

func (e *Engine) CreatePhoto(ctx context.Context, ownerId string, payload models.Photo) (models.Envelope[models.Photo], error) {
	return createRecord(e, ctx, models.KindPhoto, ownerId, payload, validatePhoto)
}

// GetPhoto reduces a trashed photo's payload to its file name: trash
// listings need the name to render, nothing more.
func (e *Engine) GetPhoto(ctx context.Context, id string) (models.Envelope[models.Photo], error) {
	return getRecord(e, ctx, models.KindPhoto, id, func(p models.Photo) models.Photo {
		return models.Photo{FileName: p.FileName}
	})
}

func (e *Engine) ListPhotos(ctx context.Context, ownerId string, filter store.ListFilter) ([]models.Envelope[models.Photo], error) {
	return listByOwner[models.Photo](e, ctx, models.KindPhoto, ownerId, filter)
}

func (e *Engine) UpdatePhoto(ctx context.Context, id string, ownerId string, patch PhotoPatch, expectedVersion *int64) (models.Envelope[models.Photo], error) {
	return updateRecord(e, ctx, models.KindPhoto, id, ownerId, expectedVersion, func(current models.Photo) (models.Photo, *ValidationError) {
		if patch.Caption != nil {
			current.Caption = *patch.Caption
		}
		if patch.TakenAt != nil {
			current.TakenAt = *patch.TakenAt
		}
		if patch.TripId != nil {
			current.TripId = *patch.TripId
		}
		if patch.LocationId != nil {
			current.LocationId = *patch.LocationId
		}
		if verr := validatePhoto(current); verr != nil {
			return models.Photo{}, verr
		}
		return current, nil
	})
}

// Photos are the one kind with a trash stage: trash first, purge later.

func (e *Engine) TrashPhoto(ctx context.Context, id string, ownerId string) error {
	return e.trashRecord(ctx, models.KindPhoto, id, ownerId)
}

func (e *Engine) RestorePhoto(ctx context.Context, id string, ownerId string) error {
	return e.restoreRecord(ctx, models.KindPhoto, id, ownerId)
}

// PurgePhoto irreversibly removes a trashed photo and releases its
// location reference. A failed decrement surfaces as an error even though
// the purge itself has committed, so callers retry and the usage count
// cannot silently drift; a previous location that no longer exists is a
// dangling reference and counts as already released.
func (e *Engine) PurgePhoto(ctx context.Context, id string, ownerId string) error {
	rec, err := e.Store.Get(ctx, models.KindPhoto, id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return &NotFoundError{Kind: models.KindPhoto, Id: id}
		}
		return &BackendUnavailableError{Err: err}
	}

	env, err := envelopeFromRecord[models.Photo](rec)
	if err != nil {
		return err
	}

	if err := e.purgeRecord(ctx, models.KindPhoto, id, ownerId, true); err != nil {
		return err
	}

	if env.Payload.LocationId != "" {
		if _, err := e.Store.IncrementCounter(ctx, models.KindLocation, env.Payload.LocationId, usageCountField, -1); err != nil && !errors.Is(err, store.ErrItemNotFound) {
			return &BackendUnavailableError{Err: err}
		}
	}

	return nil
}

func (e *Engine) TrashPhotos(ctx context.Context, ownerId string, photoIds []string) (BatchResult, error) {
	return runBatch(ctx, photoIds, func(ctx context.Context, id string) error {
		return e.TrashPhoto(ctx, id, ownerId)
	})
}

func (e *Engine) RestorePhotos(ctx context.Context, ownerId string, photoIds []string) (BatchResult, error) {
	return runBatch(ctx, photoIds, func(ctx context.Context, id string) error {
		return e.RestorePhoto(ctx, id, ownerId)
	})
}

// PurgePhotos bulk-purges, rate limited so a large batch cannot starve
// interactive writes of backend capacity. One item's failure never aborts
// the rest.
func (e *Engine) PurgePhotos(ctx context.Context, ownerId string, photoIds []string) (BatchResult, error) {
	return runBatch(ctx, photoIds, func(ctx context.Context, id string) error {
		if err := e.purgeLimiter.Wait(ctx); err != nil {
			return &BackendUnavailableError{Err: err}
		}
		return e.PurgePhoto(ctx, id, ownerId)
	})
}

// EmptyPhotoTrash purges every photo the owner currently has in the
// trash. An empty trash is a successful no-op, not a malformed batch.
func (e *Engine) EmptyPhotoTrash(ctx context.Context, ownerId string) (BatchResult, error) {
	recs, err := e.Store.ListByOwner(ctx, models.KindPhoto, ownerId, store.FilterTrashed)
	if err != nil {
		return BatchResult{}, &BackendUnavailableError{Err: err}
	}
	if len(recs) == 0 {
		return BatchResult{}, nil
	}

	photoIds := make([]string, 0, len(recs))
	for _, rec := range recs {
		photoIds = append(photoIds, rec.Id)
	}

	return e.PurgePhotos(ctx, ownerId, photoIds)
}

// AttachPhotosToTrip sets TripId on each photo. Trip ownership is
// validated once, up front: if that fails no photo is mutated.
func (e *Engine) AttachPhotosToTrip(ctx context.Context, ownerId string, tripId string, photoIds []string) (BatchResult, error) {
	tripRec, err := e.Store.Get(ctx, models.KindTrip, tripId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return BatchResult{}, &NotFoundError{Kind: models.KindTrip, Id: tripId}
		}
		return BatchResult{}, &BackendUnavailableError{Err: err}
	}
	if tripRec.OwnerId != ownerId {
		return BatchResult{}, &UnauthorizedError{Kind: models.KindTrip, Id: tripId}
	}

	return runBatch(ctx, photoIds, func(ctx context.Context, id string) error {
		_, err := updateRecord(e, ctx, models.KindPhoto, id, ownerId, nil, func(current models.Photo) (models.Photo, *ValidationError) {
			current.TripId = tripId
			return current, nil
		})
		return err
	})
}

// AssignPhotosToLocation sets LocationId on each photo. Location
// ownership is validated once, up front: a foreign location fails the
// whole call before any photo or usage count is touched. Each successful
// item moves the usage counters exactly once, through the store's atomic
// increment, never read-modify-write.
func (e *Engine) AssignPhotosToLocation(ctx context.Context, ownerId string, locationId string, photoIds []string) (BatchResult, error) {
	locRec, err := e.Store.Get(ctx, models.KindLocation, locationId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return BatchResult{}, &NotFoundError{Kind: models.KindLocation, Id: locationId}
		}
		return BatchResult{}, &BackendUnavailableError{Err: err}
	}
	if locRec.OwnerId != ownerId {
		return BatchResult{}, &UnauthorizedError{Kind: models.KindLocation, Id: locationId}
	}

	return runBatch(ctx, photoIds, func(ctx context.Context, id string) error {
		var previous string
		_, err := updateRecord(e, ctx, models.KindPhoto, id, ownerId, nil, func(current models.Photo) (models.Photo, *ValidationError) {
			previous = current.LocationId
			current.LocationId = locationId
			return current, nil
		})
		if err != nil {
			return err
		}
		if previous == locationId {
			// Re-assigning the same location must not inflate the count.
			return nil
		}

		// A counter failure marks the item failed so a retry reconciles
		// the count; the photo write has landed either way.
		if _, err := e.Store.IncrementCounter(ctx, models.KindLocation, locationId, usageCountField, 1); err != nil {
			return &BackendUnavailableError{Err: err}
		}
		if previous != "" {
			// A vanished previous location is a dangling reference with
			// no counter left to release.
			if _, err := e.Store.IncrementCounter(ctx, models.KindLocation, previous, usageCountField, -1); err != nil && !errors.Is(err, store.ErrItemNotFound) {
				return &BackendUnavailableError{Err: err}
			}
		}
		return nil
	})
}
