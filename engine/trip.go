package engine

import (
	"context"

	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
)

// TripPatch is a field-level patch; nil fields are left untouched.
type TripPatch struct {
	Name         *string
	Description  *string
	StartDate    *int64
	EndDate      *int64
	CoverPhotoId *string
}

func (e *Engine) CreateTrip(ctx context.Context, ownerId string, payload models.Trip) (models.Envelope[models.Trip], error) {
	return createRecord(e, ctx, models.KindTrip, ownerId, payload, validateTrip)
}

func (e *Engine) GetTrip(ctx context.Context, id string) (models.Envelope[models.Trip], error) {
	return getRecord[models.Trip](e, ctx, models.KindTrip, id, nil)
}

func (e *Engine) ListTrips(ctx context.Context, ownerId string, filter store.ListFilter) ([]models.Envelope[models.Trip], error) {
	return listByOwner[models.Trip](e, ctx, models.KindTrip, ownerId, filter)
}

func (e *Engine) UpdateTrip(ctx context.Context, id string, ownerId string, patch TripPatch, expectedVersion *int64) (models.Envelope[models.Trip], error) {
	return updateRecord(e, ctx, models.KindTrip, id, ownerId, expectedVersion, func(current models.Trip) (models.Trip, *ValidationError) {
		if patch.Name != nil {
			current.Name = *patch.Name
		}
		if patch.Description != nil {
			current.Description = *patch.Description
		}
		if patch.StartDate != nil {
			current.StartDate = *patch.StartDate
		}
		if patch.EndDate != nil {
			current.EndDate = *patch.EndDate
		}
		if patch.CoverPhotoId != nil {
			current.CoverPhotoId = *patch.CoverPhotoId
		}
		if verr := validateTrip(current); verr != nil {
			return models.Trip{}, verr
		}
		return current, nil
	})
}

// DeleteTrip is a hard delete: trips have no trash stage.
func (e *Engine) DeleteTrip(ctx context.Context, id string, ownerId string) error {
	return e.purgeRecord(ctx, models.KindTrip, id, ownerId, false)
}
