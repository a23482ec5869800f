package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/memora-app/memora/engine"
	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTrashPhotos_PartialFailureIsolated(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	mine1, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)
	foreign, err := eng.CreatePhoto(ctx, "user2", models.Photo{FileName: "b.jpg"})
	assert.NoError(t, err)
	mine2, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "c.jpg"})
	assert.NoError(t, err)

	result, err := eng.TrashPhotos(ctx, "user1", []string{mine1.Id, foreign.Id, mine2.Id})
	assert.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Len(t, result.Failures, 1)
	assert.Equal(t, foreign.Id, result.Failures[0].Id)
	assert.NotEmpty(t, result.Failures[0].Reason)

	// The failing item left user2's photo untouched
	other, err := eng.GetPhoto(ctx, foreign.Id)
	assert.NoError(t, err)
	assert.Equal(t, models.StateActive, other.State)
}

func TestRestorePhotos_MixedStatesAllSucceed(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	trashed, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)
	assert.NoError(t, eng.TrashPhoto(ctx, trashed.Id, "user1"))
	active, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "b.jpg"})
	assert.NoError(t, err)

	// Restoring an already-active photo is an idempotent success
	result, err := eng.RestorePhotos(ctx, "user1", []string{trashed.Id, active.Id})
	assert.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Zero(t, result.FailedCount)
}

func TestEmptyPhotoTrash_EmptyTrashIsNoOp(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	// Nothing trashed: a successful empty result, not a malformed batch
	result, err := eng.EmptyPhotoTrash(ctx, "user1")
	assert.NoError(t, err)
	assert.Zero(t, result.SuccessCount)
	assert.Zero(t, result.FailedCount)
}

func TestEmptyPhotoTrash_PurgesOnlyTrashed(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	keep, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "keep.jpg"})
	assert.NoError(t, err)
	drop1, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "drop1.jpg"})
	assert.NoError(t, err)
	drop2, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "drop2.jpg"})
	assert.NoError(t, err)
	assert.NoError(t, eng.TrashPhoto(ctx, drop1.Id, "user1"))
	assert.NoError(t, eng.TrashPhoto(ctx, drop2.Id, "user1"))

	result, err := eng.EmptyPhotoTrash(ctx, "user1")
	assert.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Zero(t, result.FailedCount)

	var notFound *engine.NotFoundError
	_, err = eng.GetPhoto(ctx, drop1.Id)
	assert.True(t, errors.As(err, &notFound))
	_, err = eng.GetPhoto(ctx, drop2.Id)
	assert.True(t, errors.As(err, &notFound))

	kept, err := eng.GetPhoto(ctx, keep.Id)
	assert.NoError(t, err)
	assert.Equal(t, models.StateActive, kept.State)
}

func TestAttachPhotosToTrip_SetsTripId(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	trip, err := eng.CreateTrip(ctx, "user1", models.Trip{Name: "Norway"})
	assert.NoError(t, err)
	p1, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)
	p2, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "b.jpg"})
	assert.NoError(t, err)

	result, err := eng.AttachPhotosToTrip(ctx, "user1", trip.Id, []string{p1.Id, p2.Id})
	assert.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)

	got, err := eng.GetPhoto(ctx, p1.Id)
	assert.NoError(t, err)
	assert.Equal(t, trip.Id, got.Payload.TripId)
}

func TestAttachPhotosToTrip_ForeignTripFailsUpFront(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	foreignTrip, err := eng.CreateTrip(ctx, "user2", models.Trip{Name: "Not yours"})
	assert.NoError(t, err)
	photo, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)

	_, err = eng.AttachPhotosToTrip(ctx, "user1", foreignTrip.Id, []string{photo.Id})
	var unauthorized *engine.UnauthorizedError
	assert.True(t, errors.As(err, &unauthorized))

	// No photo was mutated by the rejected batch
	got, err := eng.GetPhoto(ctx, photo.Id)
	assert.NoError(t, err)
	assert.Empty(t, got.Payload.TripId)
	assert.Equal(t, int64(1), got.Version)
}

func TestAssignPhotosToLocation_IncrementsUsageOncePerPhoto(t *testing.T) {
	eng, memStore := setupMemoryEngine(t)
	ctx := context.Background()

	loc, err := eng.CreateLocation(ctx, "user1", models.Location{Name: "Bergen", Latitude: 60.39, Longitude: 5.32})
	assert.NoError(t, err)
	p1, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)
	p2, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "b.jpg"})
	assert.NoError(t, err)

	result, err := eng.AssignPhotosToLocation(ctx, "user1", loc.Id, []string{p1.Id, p2.Id})
	assert.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)

	locRec, err := memStore.Get(ctx, models.KindLocation, loc.Id)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), locRec.UsageCount)

	got, err := eng.GetPhoto(ctx, p1.Id)
	assert.NoError(t, err)
	assert.Equal(t, loc.Id, got.Payload.LocationId)
}

func TestAssignPhotosToLocation_ReassignSameLocationDoesNotInflate(t *testing.T) {
	eng, memStore := setupMemoryEngine(t)
	ctx := context.Background()

	loc, err := eng.CreateLocation(ctx, "user1", models.Location{Name: "Bergen", Latitude: 60.39, Longitude: 5.32})
	assert.NoError(t, err)
	photo, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)

	_, err = eng.AssignPhotosToLocation(ctx, "user1", loc.Id, []string{photo.Id})
	assert.NoError(t, err)
	_, err = eng.AssignPhotosToLocation(ctx, "user1", loc.Id, []string{photo.Id})
	assert.NoError(t, err)

	locRec, err := memStore.Get(ctx, models.KindLocation, loc.Id)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), locRec.UsageCount)
}

func TestAssignPhotosToLocation_MoveReleasesPreviousLocation(t *testing.T) {
	eng, memStore := setupMemoryEngine(t)
	ctx := context.Background()

	oldLoc, err := eng.CreateLocation(ctx, "user1", models.Location{Name: "Bergen", Latitude: 60.39, Longitude: 5.32})
	assert.NoError(t, err)
	newLoc, err := eng.CreateLocation(ctx, "user1", models.Location{Name: "Oslo", Latitude: 59.91, Longitude: 10.75})
	assert.NoError(t, err)
	photo, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)

	_, err = eng.AssignPhotosToLocation(ctx, "user1", oldLoc.Id, []string{photo.Id})
	assert.NoError(t, err)
	_, err = eng.AssignPhotosToLocation(ctx, "user1", newLoc.Id, []string{photo.Id})
	assert.NoError(t, err)

	oldRec, err := memStore.Get(ctx, models.KindLocation, oldLoc.Id)
	assert.NoError(t, err)
	assert.Zero(t, oldRec.UsageCount)

	newRec, err := memStore.Get(ctx, models.KindLocation, newLoc.Id)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), newRec.UsageCount)
}

func TestAssignPhotosToLocation_ForeignLocationFailsUpFront(t *testing.T) {
	eng, memStore := setupMemoryEngine(t)
	ctx := context.Background()

	foreignLoc, err := eng.CreateLocation(ctx, "user2", models.Location{Name: "Bergen", Latitude: 60.39, Longitude: 5.32})
	assert.NoError(t, err)
	photo, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)

	_, err = eng.AssignPhotosToLocation(ctx, "user1", foreignLoc.Id, []string{photo.Id})
	var unauthorized *engine.UnauthorizedError
	assert.True(t, errors.As(err, &unauthorized))

	// Neither the photo nor the usage count moved
	got, err := eng.GetPhoto(ctx, photo.Id)
	assert.NoError(t, err)
	assert.Empty(t, got.Payload.LocationId)

	locRec, err := memStore.Get(ctx, models.KindLocation, foreignLoc.Id)
	assert.NoError(t, err)
	assert.Zero(t, locRec.UsageCount)
}

func TestPurgePhoto_ReleasesLocationUsage(t *testing.T) {
	eng, memStore := setupMemoryEngine(t)
	ctx := context.Background()

	loc, err := eng.CreateLocation(ctx, "user1", models.Location{Name: "Bergen", Latitude: 60.39, Longitude: 5.32})
	assert.NoError(t, err)
	photo, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)
	_, err = eng.AssignPhotosToLocation(ctx, "user1", loc.Id, []string{photo.Id})
	assert.NoError(t, err)

	assert.NoError(t, eng.TrashPhoto(ctx, photo.Id, "user1"))
	assert.NoError(t, eng.PurgePhoto(ctx, photo.Id, "user1"))

	locRec, err := memStore.Get(ctx, models.KindLocation, loc.Id)
	assert.NoError(t, err)
	assert.Zero(t, locRec.UsageCount)
}

func TestListLocations_UsageVisibleOnEnvelope(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	loc, err := eng.CreateLocation(ctx, "user1", models.Location{Name: "Bergen", Latitude: 60.39, Longitude: 5.32})
	assert.NoError(t, err)
	photo, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)
	_, err = eng.AssignPhotosToLocation(ctx, "user1", loc.Id, []string{photo.Id})
	assert.NoError(t, err)

	locations, err := eng.ListLocations(ctx, "user1", store.FilterActive)
	assert.NoError(t, err)
	assert.Len(t, locations, 1)
	assert.Equal(t, int64(1), locations[0].Usage)
}

func TestAssignPhotosToLocation_CounterFailureFailsItem(t *testing.T) {
	eng, mockStore := setupMockEngine(t)
	ctx := context.Background()

	locRec := store.Record{
		Kind:    models.KindLocation,
		Id:      "loc1",
		OwnerId: "user1",
		Version: 1,
		State:   models.StateActive,
		Payload: mustPayload(t, models.Location{Name: "Bergen", Latitude: 60.39, Longitude: 5.32}),
	}
	photoRec := store.Record{
		Kind:    models.KindPhoto,
		Id:      "photo1",
		OwnerId: "user1",
		Version: 1,
		State:   models.StateActive,
		Payload: mustPayload(t, models.Photo{FileName: "a.jpg"}),
	}

	mockStore.On("Get", mock.Anything, models.KindLocation, "loc1").Return(locRec, nil)
	mockStore.On("Get", mock.Anything, models.KindPhoto, "photo1").Return(photoRec, nil)
	mockStore.On("PutIfVersion", mock.Anything, mock.Anything, int64(1)).Return(photoRec, nil)
	mockStore.On("IncrementCounter", mock.Anything, models.KindLocation, "loc1", "UsageCount", int64(1)).
		Return(int64(0), errors.New("throughput exceeded"))

	// The photo write landed but the counter did not move, so the item
	// must not be reported as a success
	result, err := eng.AssignPhotosToLocation(ctx, "user1", "loc1", []string{"photo1"})
	assert.NoError(t, err)
	assert.Zero(t, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, "photo1", result.Failures[0].Id)
	mockStore.AssertExpectations(t)
}

func TestAssignPhotosToLocation_DeletedPreviousLocationIgnored(t *testing.T) {
	eng, memStore := setupMemoryEngine(t)
	ctx := context.Background()

	oldLoc, err := eng.CreateLocation(ctx, "user1", models.Location{Name: "Bergen", Latitude: 60.39, Longitude: 5.32})
	assert.NoError(t, err)
	newLoc, err := eng.CreateLocation(ctx, "user1", models.Location{Name: "Oslo", Latitude: 59.91, Longitude: 10.75})
	assert.NoError(t, err)
	photo, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)

	_, err = eng.AssignPhotosToLocation(ctx, "user1", oldLoc.Id, []string{photo.Id})
	assert.NoError(t, err)
	assert.NoError(t, eng.DeleteLocation(ctx, oldLoc.Id, "user1"))

	// The dangling previous reference has no counter left to release
	result, err := eng.AssignPhotosToLocation(ctx, "user1", newLoc.Id, []string{photo.Id})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Zero(t, result.FailedCount)

	newRec, err := memStore.Get(ctx, models.KindLocation, newLoc.Id)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), newRec.UsageCount)
}

func TestPurgePhoto_DeletedLocationStillPurges(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	loc, err := eng.CreateLocation(ctx, "user1", models.Location{Name: "Bergen", Latitude: 60.39, Longitude: 5.32})
	assert.NoError(t, err)
	photo, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)
	_, err = eng.AssignPhotosToLocation(ctx, "user1", loc.Id, []string{photo.Id})
	assert.NoError(t, err)

	assert.NoError(t, eng.DeleteLocation(ctx, loc.Id, "user1"))
	assert.NoError(t, eng.TrashPhoto(ctx, photo.Id, "user1"))
	assert.NoError(t, eng.PurgePhoto(ctx, photo.Id, "user1"))

	var notFound *engine.NotFoundError
	_, err = eng.GetPhoto(ctx, photo.Id)
	assert.True(t, errors.As(err, &notFound))
}
