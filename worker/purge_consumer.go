package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/memora-app/memora/engine"
	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/mq"
)

type PurgeConsumer struct {
	purgeQueue    mq.MessageQueue
	contentEngine *engine.Engine
}

func NewPurgeConsumer(purgeQueue mq.MessageQueue, contentEngine *engine.Engine) *PurgeConsumer {
	return &PurgeConsumer{
		purgeQueue:    purgeQueue,
		contentEngine: contentEngine,
	}
}

// Allow up to 5 minutes for a rate-limited bulk purge of one owner's trash
const visibilityTimeout = 300

func (consumer PurgeConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := consumer.purgeQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("purgeConsumer receive error: %v", err)
			continue
		}

		if msg == nil {
			continue
		}

		var job PurgeJob
		if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
			continue
		}

		if job.Kind != models.KindPhoto || len(job.Ids) == 0 {
			// Nothing purgeable in the job; drop it rather than redeliver.
			if err := consumer.purgeQueue.Delete(context.Background(), msg); err != nil {
				log.Printf("purgeConsumer delete error: %v", err)
			}
			continue
		}

		// timeout should be a little less than queue visibility timeout
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)
		result, err := consumer.contentEngine.PurgePhotos(ctx, job.OwnerId, job.Ids)
		cancel()
		if err != nil {
			// Leave the message for redelivery after the visibility window.
			log.Printf("purge job for owner %s failed to start: %v", job.OwnerId, err)
			continue
		}

		log.Printf("Purged %d expired photos for owner %s (%d failed)", result.SuccessCount, job.OwnerId, result.FailedCount)

		// Per-item failures are already-purged or contested records; they
		// will be picked up again by the next sweep if still expired.
		if err := consumer.purgeQueue.Delete(context.Background(), msg); err != nil {
			log.Printf("purgeConsumer delete error: %v", err)
			continue
		}
	}
}
