package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/mq"
	"github.com/memora-app/memora/store"
)

// PurgeJob asks the purge consumer to bulk-purge the listed records for
// one owner.
type PurgeJob struct {
	OwnerId string      `json:"ownerId"`
	Kind    models.Kind `json:"kind"`
	Ids     []string    `json:"ids"`
}

// TrashSweeper enforces trash retention: photos trashed longer than the
// retention window get enqueued for purge, one job per owner, and the
// purge consumer drains them. The sweeper only reads and enqueues; every
// actual purge goes through the engine so ownership and lifecycle rules
// stay in one place.
type TrashSweeper struct {
	contentStore store.ContentStore
	purgeQueue   mq.MessageQueue
	retention    time.Duration
	interval     time.Duration
}

func NewTrashSweeper(contentStore store.ContentStore, purgeQueue mq.MessageQueue, retention time.Duration, interval time.Duration) *TrashSweeper {
	return &TrashSweeper{
		contentStore: contentStore,
		purgeQueue:   purgeQueue,
		retention:    retention,
		interval:     interval,
	}
}

func (s *TrashSweeper) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(shutdownCtx)

		case <-shutdownCtx.Done():
			return
		}
	}
}

func (s *TrashSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention).Unix()

	recs, err := s.contentStore.ListTrashedBefore(ctx, models.KindPhoto, cutoff)
	if err != nil {
		log.Printf("Trash sweep failed to list expired records: %v", err)
		return
	}
	if len(recs) == 0 {
		return
	}

	// One job per owner so a single slow owner cannot block the rest.
	byOwner := make(map[string][]string)
	for _, rec := range recs {
		byOwner[rec.OwnerId] = append(byOwner[rec.OwnerId], rec.Id)
	}

	for ownerId, ids := range byOwner {
		job := PurgeJob{OwnerId: ownerId, Kind: models.KindPhoto, Ids: ids}
		body, err := json.Marshal(job)
		if err != nil {
			continue
		}
		if err := s.purgeQueue.Send(ctx, string(body)); err != nil {
			log.Printf("Failed to enqueue purge job for owner %s: %v", ownerId, err)
			continue
		}
		log.Printf("Enqueued purge job for owner %s (%d expired photos)", ownerId, len(ids))
	}
}
