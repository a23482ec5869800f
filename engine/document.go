package engine

import (
	"context"
	"encoding/json"

	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
)

// DocumentPatch: nil Title leaves it untouched; a non-nil Body replaces
// the editor tree wholesale.
type DocumentPatch struct {
	Title *string
	Body  json.RawMessage
}

func (e *Engine) CreateDocument(ctx context.Context, ownerId string, payload models.Document) (models.Envelope[models.Document], error) {
	return createRecord(e, ctx, models.KindDocument, ownerId, payload, validateDocument)
}

func (e *Engine) GetDocument(ctx context.Context, id string) (models.Envelope[models.Document], error) {
	return getRecord[models.Document](e, ctx, models.KindDocument, id, nil)
}

func (e *Engine) ListDocuments(ctx context.Context, ownerId string, filter store.ListFilter) ([]models.Envelope[models.Document], error) {
	return listByOwner[models.Document](e, ctx, models.KindDocument, ownerId, filter)
}

func (e *Engine) UpdateDocument(ctx context.Context, id string, ownerId string, patch DocumentPatch, expectedVersion *int64) (models.Envelope[models.Document], error) {
	return updateRecord(e, ctx, models.KindDocument, id, ownerId, expectedVersion, func(current models.Document) (models.Document, *ValidationError) {
		if patch.Title != nil {
			current.Title = *patch.Title
		}
		if patch.Body != nil {
			current.Body = patch.Body
		}
		if verr := validateDocument(current); verr != nil {
			return models.Document{}, verr
		}
		return current, nil
	})
}

// DeleteDocument is a hard delete: documents have no trash stage.
func (e *Engine) DeleteDocument(ctx context.Context, id string, ownerId string) error {
	return e.purgeRecord(ctx, models.KindDocument, id, ownerId, false)
}
