package models

// Kind identifies an entity kind stored by the engine.
type Kind string

const (
	KindCanvas   Kind = "CANVAS"
	KindDocument Kind = "DOCUMENT"
	KindTrip     Kind = "TRIP"
	KindPhoto    Kind = "PHOTO"
	KindLocation Kind = "LOCATION"
)

// State is the lifecycle state of a stored record.
// Purged records have no state: they are physically removed.
type State string

const (
	StateActive  State = "ACTIVE"
	StateTrashed State = "TRASHED"
)

// Envelope is the versioned wrapper shared by every entity kind.
// Id and OwnerId are immutable after creation. Version starts at 1 and
// increments by exactly 1 on every accepted write. Timestamps are unix
// seconds; zero means absent.
type Envelope[P any] struct {
	Id         string `json:"id"`
	OwnerId    string `json:"ownerId"`
	Version    int64  `json:"version"`
	Payload    P      `json:"payload"`
	State      State  `json:"state"`
	TrashedAt  int64  `json:"trashedAt,omitempty"`
	RestoredAt int64  `json:"restoredAt,omitempty"`
	CreatedAt  int64  `json:"createdAt"`
	UpdatedAt  int64  `json:"updatedAt"`
	// Usage is a reference counter maintained on the record itself,
	// only meaningful for kinds other records point at (locations).
	Usage int64 `json:"usage,omitempty"`
}

// NextVersion returns the version an accepted write must persist.
func NextVersion[P any](e Envelope[P]) int64 {
	return e.Version + 1
}

// IsOwnedBy reports whether userId owns the envelope.
// All access control in the engine is owner-based equality.
func IsOwnedBy[P any](e Envelope[P], userId string) bool {
	return e.OwnerId == userId
}
