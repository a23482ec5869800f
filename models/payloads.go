package models

import "encoding/json"

// CanvasElement is a single drawable element on a canvas page.
// The frontend owns the element schema; the engine only checks the parts
// it needs for validation and stores the rest opaquely.
type CanvasElement struct {
	Id    string          `json:"id"`
	Type  string          `json:"type"`
	Props json.RawMessage `json:"props,omitempty"`
}

type CanvasPage struct {
	Id       string          `json:"id"`
	Elements []CanvasElement `json:"elements"`
}

// Canvas is a multi-page editor project. Page and element arrays are
// replaced wholesale on update, never item-merged.
type Canvas struct {
	Title string       `json:"title"`
	Pages []CanvasPage `json:"pages"`
}

// Document is a rich-text document. Body is the editor's JSON tree,
// stored opaquely and replaced wholesale on update.
type Document struct {
	Title string          `json:"title"`
	Body  json.RawMessage `json:"body,omitempty"`
}

type Trip struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	StartDate    int64  `json:"startDate,omitempty"`
	EndDate      int64  `json:"endDate,omitempty"`
	CoverPhotoId string `json:"coverPhotoId,omitempty"`
}

type Photo struct {
	FileName   string `json:"fileName"`
	Caption    string `json:"caption,omitempty"`
	TakenAt    int64  `json:"takenAt,omitempty"`
	TripId     string `json:"tripId,omitempty"`
	LocationId string `json:"locationId,omitempty"`
}

// Location usage counts live on the record (Envelope.Usage), not here,
// so they can only move through the store's atomic counter primitive.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
