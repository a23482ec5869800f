package engine

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
)

// CanvasPatch is a partial update. Nil fields are left untouched. Pages is
// replaced wholesale when non-nil: the editor always sends the full page
// and element list, never a diff.
type CanvasPatch struct {
	Title *string
	Pages []models.CanvasPage
}

func (e *Engine) CreateCanvas(ctx context.Context, ownerId string, payload models.Canvas) (models.Envelope[models.Canvas], error) {
	return createRecord(e, ctx, models.KindCanvas, ownerId, payload, validateCanvas)
}

func (e *Engine) GetCanvas(ctx context.Context, id string) (models.Envelope[models.Canvas], error) {
	return getRecord[models.Canvas](e, ctx, models.KindCanvas, id, nil)
}

func (e *Engine) ListCanvases(ctx context.Context, ownerId string, filter store.ListFilter) ([]models.Envelope[models.Canvas], error) {
	return listByOwner[models.Canvas](e, ctx, models.KindCanvas, ownerId, filter)
}

// UpdateCanvas accepts a nil expectedVersion as a force save: auto-save
// and emergency beacon saves must never be blocked by a version conflict.
func (e *Engine) UpdateCanvas(ctx context.Context, id string, ownerId string, patch CanvasPatch, expectedVersion *int64) (models.Envelope[models.Canvas], error) {
	return updateRecord(e, ctx, models.KindCanvas, id, ownerId, expectedVersion, func(current models.Canvas) (models.Canvas, *ValidationError) {
		if patch.Title != nil {
			current.Title = *patch.Title
		}
		if patch.Pages != nil {
			current.Pages = patch.Pages
		}
		if verr := validateCanvas(current); verr != nil {
			return models.Canvas{}, verr
		}
		return current, nil
	})
}

// DeleteCanvas is a hard delete: canvases have no trash stage.
func (e *Engine) DeleteCanvas(ctx context.Context, id string, ownerId string) error {
	return e.purgeRecord(ctx, models.KindCanvas, id, ownerId, false)
}

// GetOrCreateDefaultCanvas backs the editor's first load: the owner's most
// recently updated active canvas, or a fresh single-page one. Concurrent
// first loads for the same owner resolve to the same canvas.
func (e *Engine) GetOrCreateDefaultCanvas(ctx context.Context, ownerId string) (models.Envelope[models.Canvas], error) {
	return getOrCreateDefault(e, ctx, models.KindCanvas, ownerId, "default", func() (models.Canvas, error) {
		pageId, err := uuid.NewV4()
		if err != nil {
			return models.Canvas{}, err
		}
		return models.Canvas{
			Title: "Untitled canvas",
			Pages: []models.CanvasPage{
				{Id: pageId.String(), Elements: []models.CanvasElement{}},
			},
		}, nil
	})
}
