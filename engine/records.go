package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/memora-app/memora/models"
	"github.com/memora-app/memora/store"
)

// Go methods cannot take type parameters, so the generic core lives in
// package-level functions taking the engine, and the per-kind methods in
// canvas.go/document.go/trip.go/photo.go/location.go stay thin wrappers.

func envelopeFromRecord[P any](rec store.Record) (models.Envelope[P], error) {
	env := models.Envelope[P]{
		Id:         rec.Id,
		OwnerId:    rec.OwnerId,
		Version:    rec.Version,
		State:      rec.State,
		TrashedAt:  rec.TrashedAt,
		RestoredAt: rec.RestoredAt,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		Usage:      rec.UsageCount,
	}
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &env.Payload); err != nil {
			return models.Envelope[P]{}, fmt.Errorf("failed to unmarshal %s payload: %w", rec.Kind, err)
		}
	}
	return env, nil
}

func recordFromEnvelope[P any](kind models.Kind, env models.Envelope[P]) (store.Record, error) {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return store.Record{}, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	return store.Record{
		Kind:       kind,
		Id:         env.Id,
		OwnerId:    env.OwnerId,
		Version:    env.Version,
		State:      env.State,
		Payload:    payload,
		UsageCount: env.Usage,
		CreatedAt:  env.CreatedAt,
		UpdatedAt:  env.UpdatedAt,
		TrashedAt:  env.TrashedAt,
		RestoredAt: env.RestoredAt,
	}, nil
}

// createRecord validates, assigns a fresh id and version 1, and persists
// with a must-not-exist condition.
func createRecord[P any](
	e *Engine,
	ctx context.Context,
	kind models.Kind,
	ownerId string,
	payload P,
	validate func(P) *ValidationError,
) (models.Envelope[P], error) {
	var zero models.Envelope[P]

	if ownerId == "" {
		return zero, &ValidationError{Code: "OWNER_REQUIRED", Message: "owner id must not be empty"}
	}
	if verr := validate(payload); verr != nil {
		return zero, verr
	}

	recordId, err := uuid.NewV7()
	if err != nil {
		return zero, err
	}

	now := time.Now().Unix()
	env := models.Envelope[P]{
		Id:        recordId.String(),
		OwnerId:   ownerId,
		Version:   1,
		Payload:   payload,
		State:     models.StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	rec, err := recordFromEnvelope(kind, env)
	if err != nil {
		return zero, err
	}

	stored, err := e.Store.PutIfVersion(ctx, rec, 0)
	if err != nil {
		return zero, &BackendUnavailableError{Err: err}
	}

	e.afterWrite(stored, eventCreated)
	return env, nil
}

// getRecord returns purged and nonexistent ids as NotFoundError. Trashed
// records come back with their payload reduced by trimTrashed (nil = keep
// full payload) so a trashed record leaks no more than trash listings need.
func getRecord[P any](
	e *Engine,
	ctx context.Context,
	kind models.Kind,
	id string,
	trimTrashed func(P) P,
) (models.Envelope[P], error) {
	rec, err := e.fetchRecord(ctx, kind, id)
	if err != nil {
		return models.Envelope[P]{}, err
	}

	env, err := envelopeFromRecord[P](rec)
	if err != nil {
		return models.Envelope[P]{}, err
	}

	if env.State == models.StateTrashed && trimTrashed != nil {
		env.Payload = trimTrashed(env.Payload)
	}

	return env, nil
}

func listByOwner[P any](
	e *Engine,
	ctx context.Context,
	kind models.Kind,
	ownerId string,
	filter store.ListFilter,
) ([]models.Envelope[P], error) {
	recs, err := e.Store.ListByOwner(ctx, kind, ownerId, filter)
	if err != nil {
		return nil, &BackendUnavailableError{Err: err}
	}

	envelopes := make([]models.Envelope[P], 0, len(recs))
	for _, rec := range recs {
		env, err := envelopeFromRecord[P](rec)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}

	return envelopes, nil
}

// updateRecord is the full write pipeline: ownership, then validation via
// applyPatch, then the conflict check, then a compare-and-swap persist.
// Validation runs before the conflict check so an invalid write never
// consumes a version slot. When the backend reports a mismatch (another
// writer landed between our read and our put), the conflict detector is
// re-run against a fresh read instead of assuming either outcome: a force
// save retries until it lands, a conditional save surfaces the conflict
// with the authoritative server version.
func updateRecord[P any](
	e *Engine,
	ctx context.Context,
	kind models.Kind,
	id string,
	ownerId string,
	expectedVersion *int64,
	applyPatch func(P) (P, *ValidationError),
) (models.Envelope[P], error) {
	var zero models.Envelope[P]

	for {
		select {
		case <-ctx.Done():
			return zero, &BackendUnavailableError{Err: ctx.Err()}
		default:
		}

		rec, err := e.Store.Get(ctx, kind, id)
		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return zero, &NotFoundError{Kind: kind, Id: id}
			}
			return zero, &BackendUnavailableError{Err: err}
		}
		if rec.OwnerId != ownerId {
			return zero, &UnauthorizedError{Kind: kind, Id: id}
		}

		env, err := envelopeFromRecord[P](rec)
		if err != nil {
			return zero, err
		}

		merged, verr := applyPatch(env.Payload)
		if verr != nil {
			return zero, verr
		}

		if conflict := checkVersion(rec.Version, expectedVersion); conflict != nil {
			return zero, conflict
		}

		payload, err := json.Marshal(merged)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
		}

		newRec := rec
		newRec.Payload = payload
		newRec.Version = rec.Version + 1
		newRec.UpdatedAt = time.Now().Unix()

		stored, err := e.Store.PutIfVersion(ctx, newRec, rec.Version)
		if err != nil {
			var mismatch *store.VersionMismatchError
			if errors.As(err, &mismatch) {
				continue
			}
			if errors.Is(err, store.ErrItemNotFound) {
				return zero, &NotFoundError{Kind: kind, Id: id}
			}
			return zero, &BackendUnavailableError{Err: err}
		}

		e.afterWrite(stored, eventUpdated)
		return envelopeFromRecord[P](stored)
	}
}

// getOrCreateDefault returns the owner's most recently updated active
// record of a kind, or provisions one with the built-in default payload.
// Provisioning goes through the store's create-unique primitive so two
// racing first loads cannot both create: the loser reads back the
// winner's record.
func getOrCreateDefault[P any](
	e *Engine,
	ctx context.Context,
	kind models.Kind,
	ownerId string,
	uniquenessKey string,
	defaultPayload func() (P, error),
) (models.Envelope[P], error) {
	var zero models.Envelope[P]

	if ownerId == "" {
		return zero, &ValidationError{Code: "OWNER_REQUIRED", Message: "owner id must not be empty"}
	}

	recs, err := e.Store.ListByOwner(ctx, kind, ownerId, store.FilterActive)
	if err != nil {
		return zero, &BackendUnavailableError{Err: err}
	}
	if len(recs) > 0 {
		latest := recs[0]
		for _, rec := range recs[1:] {
			if rec.UpdatedAt > latest.UpdatedAt {
				latest = rec
			}
		}
		return envelopeFromRecord[P](latest)
	}

	payload, err := defaultPayload()
	if err != nil {
		return zero, err
	}

	recordId, err := uuid.NewV7()
	if err != nil {
		return zero, err
	}

	now := time.Now().Unix()
	env := models.Envelope[P]{
		Id:        recordId.String(),
		OwnerId:   ownerId,
		Version:   1,
		Payload:   payload,
		State:     models.StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	rec, err := recordFromEnvelope(kind, env)
	if err != nil {
		return zero, err
	}

	stored, created, err := e.Store.CreateUnique(ctx, rec, uniquenessKey)
	if err != nil {
		return zero, &BackendUnavailableError{Err: err}
	}
	if created {
		e.afterWrite(stored, eventCreated)
	}

	return envelopeFromRecord[P](stored)
}
