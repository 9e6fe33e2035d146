package ports

import (
	"context"

	"github.com/statorhq/stator/pkg/domain"
)

// PersistOptions controls a single persist attempt.
type PersistOptions struct {
	// Validate runs the store's validation rules before saving.
	// The coordinator's durable write always passes false: the transition
	// was already authorized by the FSM engine's guards, and unrelated
	// field errors must not block it.
	Validate bool
}

// DocumentStore defines the interface for durably persisting records.
//
// Persist returns (false, nil) when the store refuses the save for ordinary
// validation or constraint reasons; the coordinator recovers that locally by
// rolling back. A non-nil error means the collaborator itself failed
// (connectivity, serialization) and propagates to the coordinator's caller.
type DocumentStore interface {
	// Persist attempts to save the record, reporting whether it succeeded.
	Persist(ctx context.Context, rec Record, opts PersistOptions) (bool, error)

	// Load retrieves a stored record by ID.
	// Returns domain.ErrRecordNotFound if the record does not exist.
	Load(ctx context.Context, id string) (*domain.Document, error)

	// Delete removes the record.
	Delete(ctx context.Context, id string) error
}

// StateFinder is an optional store capability for querying record IDs by the
// value of their state field. Scope sets are built on top of it.
type StateFinder interface {
	FindByState(ctx context.Context, field string, state domain.State) ([]string, error)
}

// ValidateFunc is a single validation rule a store applies on validating
// persists. A non-nil error marks the record invalid and maps to a refused
// save, not a store failure.
type ValidateFunc func(rec Record) error
