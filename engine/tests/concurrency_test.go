package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/memora-app/memora/engine"
	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
	"github.com/stretchr/testify/assert"
)

// These run against the real in-memory store: compare-and-swap races need
// a live store, a mock cannot lose a race.

func TestConcurrentUpdates_ExactlyOneWinner(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	created, err := eng.CreateTrip(ctx, "user1", models.Trip{Name: "Norway"})
	assert.NoError(t, err)

	const writers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts []*engine.VersionConflictError
	)

	// Every writer observed version 1 and sends a conditional save
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			name := string(rune('A' + i))
			_, err := eng.UpdateTrip(ctx, created.Id, "user1", engine.TripPatch{Name: &name}, int64Ptr(1))

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			var conflict *engine.VersionConflictError
			if assert.True(t, errors.As(err, &conflict)) {
				conflicts = append(conflicts, conflict)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Len(t, conflicts, writers-1)
	for _, conflict := range conflicts {
		assert.Equal(t, int64(2), conflict.ServerVersion)
		assert.Equal(t, int64(1), conflict.ClientVersion)
	}

	current, err := eng.GetTrip(ctx, created.Id)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), current.Version)
}

func TestConcurrentForceSaves_AllLandVersionsStrictlyIncrease(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	created, err := eng.CreateDocument(ctx, "user1", models.Document{Title: "Journal"})
	assert.NoError(t, err)

	const writers = 8

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := "Journal " + string(rune('A'+i))
			_, err := eng.UpdateDocument(ctx, created.Id, "user1", engine.DocumentPatch{Title: &title}, nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Force saves retry on mismatch until they land, so each consumes
	// exactly one version slot
	current, err := eng.GetDocument(ctx, created.Id)
	assert.NoError(t, err)
	assert.Equal(t, int64(1+writers), current.Version)
}

func TestConcurrentGetOrCreateDefault_SingleCanvas(t *testing.T) {
	eng, _ := setupMemoryEngine(t)
	ctx := context.Background()

	const loaders = 8

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]bool)
	)

	for i := 0; i < loaders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			env, err := eng.GetOrCreateDefaultCanvas(ctx, "user1")
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			ids[env.Id] = true
		}()
	}
	wg.Wait()

	// Racing first loads must all resolve to the same canvas
	assert.Len(t, ids, 1)

	canvases, err := eng.ListCanvases(ctx, "user1", store.FilterActive)
	assert.NoError(t, err)
	assert.Len(t, canvases, 1)
}

func TestConcurrentTrashAndRestore_EndsInValidState(t *testing.T) {
	eng, memStore := setupMemoryEngine(t)
	ctx := context.Background()

	created, err := eng.CreatePhoto(ctx, "user1", models.Photo{FileName: "a.jpg"})
	assert.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, eng.TrashPhoto(ctx, created.Id, "user1"))
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, eng.RestorePhoto(ctx, created.Id, "user1"))
		}()
	}
	wg.Wait()

	// Whatever interleaving happened, the record is in exactly one
	// consistent state
	rec, err := memStore.Get(ctx, models.KindPhoto, created.Id)
	assert.NoError(t, err)
	switch rec.State {
	case models.StateTrashed:
		assert.NotZero(t, rec.TrashedAt)
	case models.StateActive:
		assert.Zero(t, rec.TrashedAt)
	default:
		t.Fatalf("unexpected state %q", rec.State)
	}
}
