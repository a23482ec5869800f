// Package engine is the versioned storage engine shared by every entity
// kind: optimistic concurrency on an integer version, per-kind validation,
// soft delete with restore and purge, and batch mutations with isolated
// per-item failure. The transport layer hands it an already authenticated
// owner id; the engine only ever does ownership-equality checks.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/memora-app/memora/cache"
	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
	"golang.org/x/time/rate"
)

type Engine struct {
	Store store.ContentStore
	Cache cache.ContentCache

	// purgeLimiter throttles bulk purges so emptying a large trash does
	// not starve interactive writes of backend capacity.
	purgeLimiter *rate.Limiter
}

func NewEngine(contentStore store.ContentStore, contentCache cache.ContentCache) *Engine {
	return &Engine{
		Store:        contentStore,
		Cache:        contentCache,
		purgeLimiter: rate.NewLimiter(rate.Limit(200), 25),
	}
}

// ChangeEvent is published on the owner's channel after every accepted
// write so other open editors can refresh without polling.
type ChangeEvent struct {
	Type    string      `json:"type"`
	Kind    models.Kind `json:"kind"`
	Id      string      `json:"id"`
	OwnerId string      `json:"ownerId"`
	Version int64       `json:"version,omitempty"`
}

const (
	eventCreated  = "record_created"
	eventUpdated  = "record_updated"
	eventTrashed  = "record_trashed"
	eventRestored = "record_restored"
	eventPurged   = "record_purged"
)

func ownerChannel(ownerId string) string {
	return "owner:" + ownerId
}

// fetchRecord reads through the cache. Only read paths use it: the
// check-then-write loop always reads the store directly, otherwise a stale
// cached version would make the compare-and-swap spin on itself.
func (e *Engine) fetchRecord(ctx context.Context, kind models.Kind, id string) (store.Record, error) {
	if data, err := e.Cache.GetRecord(ctx, kind, id); err == nil && data != nil {
		var rec store.Record
		if err := json.Unmarshal(data, &rec); err == nil {
			return rec, nil
		}
	}

	rec, err := e.Store.Get(ctx, kind, id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return store.Record{}, &NotFoundError{Kind: kind, Id: id}
		}
		return store.Record{}, &BackendUnavailableError{Err: err}
	}

	if data, err := json.Marshal(rec); err == nil {
		if err := e.Cache.SetRecord(ctx, kind, id, data); err != nil {
			log.Printf("Failed to seed record cache for %s %s: %v", kind, id, err)
		}
	}

	return rec, nil
}

// afterWrite refreshes the cache and broadcasts the change. Failures here
// must never fail the accepted write, so it all runs detached from the
// caller, same as every other side effect in this codebase.
func (e *Engine) afterWrite(rec store.Record, eventType string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if data, err := json.Marshal(rec); err == nil {
			if err := e.Cache.SetRecord(ctx, rec.Kind, rec.Id, data); err != nil {
				log.Printf("Failed to refresh record cache for %s %s: %v", rec.Kind, rec.Id, err)
			}
		}

		e.publishChange(ctx, ChangeEvent{
			Type:    eventType,
			Kind:    rec.Kind,
			Id:      rec.Id,
			OwnerId: rec.OwnerId,
			Version: rec.Version,
		})
	}()
}

// afterPurge broadcasts the removal. Cache invalidation already happened
// synchronously in purgeRecord: a purged record must not be readable, not
// even for the moment a detached goroutine would take to run.
func (e *Engine) afterPurge(kind models.Kind, id string, ownerId string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		e.publishChange(ctx, ChangeEvent{
			Type:    eventPurged,
			Kind:    kind,
			Id:      id,
			OwnerId: ownerId,
		})
	}()
}

func (e *Engine) publishChange(ctx context.Context, event ChangeEvent) {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := e.Cache.Publish(ctx, ownerChannel(event.OwnerId), msgBytes); err != nil {
		log.Printf("Failed to publish change event for %s %s: %v", event.Kind, event.Id, err)
	}
}
