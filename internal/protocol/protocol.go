/*
Package protocol implements the default state-write protocol: read the
current persisted state, populate an initial state into a blank field, and
commit a new state durably (with rollback on refusal) or deferred (in-memory
only).

The functions here are pure record/store mechanics. Logging and lifecycle
hooks are layered on by the stator.Coordinator facade.
*/
package protocol

import (
	"context"

	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/ports"
)

// ReadState returns the state currently stored in the record's field.
// The field is re-read on every call so external reloads are observed;
// nothing is cached. A blank field reads as the empty state.
func ReadState(rec ports.Record, field string) domain.State {
	return domain.State(rec.Get(field))
}

// EnsureInitialState populates the record's field with the supplier's
// designated initial state, only when the field is currently blank. It never
// saves; it is meant to run synchronously before each validation attempt so
// the surrounding create/save flow persists the value itself.
//
// Returns the state written and true when a write happened. A non-blank
// field is left untouched, even one set by a prior failed save, so repeated
// validation attempts are idempotent.
func EnsureInitialState(rec ports.Record, field string, supplier ports.InitialStateSupplier) (domain.State, bool) {
	if !domain.IsBlank(rec.Get(field)) {
		return "", false
	}
	state := supplier.Compute(rec)
	rec.Set(field, state.String())
	return state, true
}

// WriteDurable commits the target state with exactly one persist attempt.
//
// The previous raw value is captured, the target written, and the store asked
// to save without validation. A refused save restores the previous value
// exactly, blank included, and reports a rollback. A store error propagates
// unchanged: the field is NOT restored, since the store's outcome is unknown
// and a rewrite could mask a save that actually landed. Callers must assume
// the record holds the target value in memory after an error.
func WriteDurable(ctx context.Context, rec ports.Record, field string, target domain.State, store ports.DocumentStore) (domain.WriteOutcome, error) {
	previous := rec.Get(field)
	rec.Set(field, target.String())

	ok, err := store.Persist(ctx, rec, ports.PersistOptions{Validate: false})
	if err != nil {
		return domain.WriteOutcome{}, err
	}
	if !ok {
		rec.Set(field, previous)
		return domain.WriteOutcome{Committed: false, Previous: previous}, nil
	}
	return domain.WriteOutcome{Committed: true, Previous: previous}, nil
}

// WriteDeferred writes the target state into the record only. Persistence is
// left to a later, caller-controlled save; no store is touched.
func WriteDeferred(rec ports.Record, field string, target domain.State) {
	rec.Set(field, target.String())
}
