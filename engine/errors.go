package engine

import (
	"fmt"

	"github.com/memora-app/memora/models"
)

// The engine reports failures as a small closed set of typed errors so the
// transport layer can map them to statuses with errors.As instead of
// string matching.

// ValidationError marks caller-fixable bad input. Code is machine
// readable, Message human readable. Never retried automatically.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

// NotFoundError covers both ids that never existed and ids already purged.
type NotFoundError struct {
	Kind models.Kind
	Id   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

// UnauthorizedError is an owner mismatch on an existing record.
type UnauthorizedError struct {
	Kind models.Kind
	Id   string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s %s is owned by another user", e.Kind, e.Id)
}

// VersionConflictError is an optimistic concurrency collision. It carries
// both version numbers so the client can run stale-data reconciliation
// without a second round trip.
type VersionConflictError struct {
	ServerVersion int64
	ClientVersion int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: server has %d, client sent %d", e.ServerVersion, e.ClientVersion)
}

// BackendUnavailableError wraps transient store failures. Safe to retry
// with backoff; distinct from VersionConflictError by construction.
type BackendUnavailableError struct {
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return "backend unavailable: " + e.Err.Error()
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}
