package cache

import (
	"context"

	"github.com/memora-app/memora/models"
)

// ContentCache fronts the store with a per-record read cache and carries
// the record-change pub/sub used to fan out saves to other open editors.
// A cache miss is (nil, nil), not an error.
type ContentCache interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error

	GetRecord(ctx context.Context, kind models.Kind, id string) ([]byte, error)
	SetRecord(ctx context.Context, kind models.Kind, id string, data []byte) error
	InvalidateRecord(ctx context.Context, kind models.Kind, id string) error
}
