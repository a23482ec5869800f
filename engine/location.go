package engine

import (
	"context"

	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
)

// LocationPatch is a field-level patch; nil fields are left untouched.
// The usage count is not patchable: it is derived from referencing writes
// and only ever moves through the store's atomic counter primitive.
type LocationPatch struct {
	Name      *string
	Latitude  *float64
	Longitude *float64
}

// usageCountField is the record attribute behind Envelope.Usage.
const usageCountField = "UsageCount"

func (e *Engine) CreateLocation(ctx context.Context, ownerId string, payload models.Location) (models.Envelope[models.Location], error) {
	return createRecord(e, ctx, models.KindLocation, ownerId, payload, validateLocation)
}

func (e *Engine) GetLocation(ctx context.Context, id string) (models.Envelope[models.Location], error) {
	return getRecord[models.Location](e, ctx, models.KindLocation, id, nil)
}

func (e *Engine) ListLocations(ctx context.Context, ownerId string, filter store.ListFilter) ([]models.Envelope[models.Location], error) {
	return listByOwner[models.Location](e, ctx, models.KindLocation, ownerId, filter)
}

func (e *Engine) UpdateLocation(ctx context.Context, id string, ownerId string, patch LocationPatch, expectedVersion *int64) (models.Envelope[models.Location], error) {
	return updateRecord(e, ctx, models.KindLocation, id, ownerId, expectedVersion, func(current models.Location) (models.Location, *ValidationError) {
		if patch.Name != nil {
			current.Name = *patch.Name
		}
		if patch.Latitude != nil {
			current.Latitude = *patch.Latitude
		}
		if patch.Longitude != nil {
			current.Longitude = *patch.Longitude
		}
		if verr := validateLocation(current); verr != nil {
			return models.Location{}, verr
		}
		return current, nil
	})
}

// DeleteLocation is a hard delete: locations have no trash stage. Photos
// still pointing at the location keep their dangling LocationId; resolving
// it is a read-side concern.
func (e *Engine) DeleteLocation(ctx context.Context, id string, ownerId string) error {
	return e.purgeRecord(ctx, models.KindLocation, id, ownerId, false)
}
