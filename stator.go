package stator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/statorhq/stator/internal/logging"
	"github.com/statorhq/stator/internal/protocol"
	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/ports"
)

// ErrEmptyStateField is returned by New when no state field name is given.
var ErrEmptyStateField = errors.New("state field name cannot be empty")

// ReadStrategy reads the current state from the record's field.
type ReadStrategy func(rec ports.Record, field string) domain.State

// EnsureStrategy populates an initial state into a blank field, returning the
// state written and whether a write happened.
type EnsureStrategy func(rec ports.Record, field string, supplier ports.InitialStateSupplier) (domain.State, bool)

// DurableStrategy commits a target state with a single persist attempt,
// rolling the field back when the store refuses the save.
type DurableStrategy func(ctx context.Context, rec ports.Record, field string, target domain.State, store ports.DocumentStore) (domain.WriteOutcome, error)

// DeferredStrategy applies a target state to the record only.
type DeferredStrategy func(rec ports.Record, field string, target domain.State)

// Coordinator mediates all reads and writes of a record's state field,
// enforcing the commit/rollback and initial-state invariants. It is stateless
// itself — all state lives in the record passed to each call — so a single
// Coordinator serves any number of records of the same entity type.
type Coordinator struct {
	field string

	read     ReadStrategy
	ensure   EnsureStrategy
	durable  DurableStrategy
	deferred DeferredStrategy

	hooks  domain.Hooks
	logger *slog.Logger
}

// Option defines a functional option for configuring the Coordinator.
type Option func(*Coordinator)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithHooks registers lifecycle callbacks fired around coordinator operations.
func WithHooks(hooks domain.Hooks) Option {
	return func(c *Coordinator) {
		c.hooks = hooks
	}
}

// WithReadStrategy overrides how the current state is read from a record.
func WithReadStrategy(read ReadStrategy) Option {
	return func(c *Coordinator) {
		c.read = read
	}
}

// WithEnsureStrategy overrides how a blank field acquires its initial state.
func WithEnsureStrategy(ensure EnsureStrategy) Option {
	return func(c *Coordinator) {
		c.ensure = ensure
	}
}

// WithDurableStrategy overrides how a durable write is committed. Hosts can
// supply a custom strategy (e.g. retries inside the store boundary) without
// forking the rest of the coordinator.
func WithDurableStrategy(durable DurableStrategy) Option {
	return func(c *Coordinator) {
		c.durable = durable
	}
}

// WithDeferredStrategy overrides how a deferred write is applied.
func WithDeferredStrategy(deferred DeferredStrategy) Option {
	return func(c *Coordinator) {
		c.deferred = deferred
	}
}

// New creates a Coordinator for records whose state lives in stateField.
// The field name is fixed per entity type and immutable after construction.
func New(stateField string, opts ...Option) (*Coordinator, error) {
	if stateField == "" {
		return nil, ErrEmptyStateField
	}

	c := &Coordinator{
		field:    stateField,
		read:     protocol.ReadState,
		ensure:   protocol.EnsureInitialState,
		durable:  protocol.WriteDurable,
		deferred: protocol.WriteDeferred,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StateField returns the name of the record field the coordinator manages.
func (c *Coordinator) StateField() string {
	return c.field
}

// ReadState returns the state currently stored in the record's field. The
// value is re-read from the record on every call, so external reloads are
// observed; callers wanting a snapshot must cache the return value themselves.
func (c *Coordinator) ReadState(rec ports.Record) domain.State {
	return c.read(rec, c.field)
}

// EnsureInitialState populates the record's blank state field with the
// supplier's designated initial state. It runs in-memory only and is meant to
// be called once per validation attempt, before validation rules run; a
// non-blank field is never overwritten.
func (c *Coordinator) EnsureInitialState(ctx context.Context, rec ports.Record, supplier ports.InitialStateSupplier) {
	state, wrote := c.ensure(rec, c.field, supplier)
	if !wrote {
		return
	}

	if state.IsBlank() {
		// Writing a blank initial state is legal but almost certainly a
		// defect in the FSM definition, not a runtime fault.
		c.logger.Warn("initial state supplier returned a blank state",
			"record_id", rec.ID(),
			"field", c.field,
		)
	} else {
		c.logger.Debug("populated initial state",
			"record_id", rec.ID(),
			"field", c.field,
			"state", state.String(),
		)
	}

	if c.hooks.OnInitialState != nil {
		c.hooks.OnInitialState(ctx, &domain.InitialStateEvent{
			Timestamp: time.Now(),
			RecordID:  rec.ID(),
			Field:     c.field,
			State:     state.String(),
		})
	}
}

// WriteState durably commits the target state: exactly one persist attempt,
// bypassing the record's own validation rules. When the store refuses the
// save, the field is restored to its exact pre-write value and the outcome
// reports a rollback. A store-level error propagates to the caller without a
// rollback — the record may be left holding the target value in memory while
// the store's state is unknown.
func (c *Coordinator) WriteState(ctx context.Context, rec ports.Record, target domain.State, store ports.DocumentStore) (domain.WriteOutcome, error) {
	outcome, err := c.durable(ctx, rec, c.field, target, store)
	if err != nil {
		c.logger.Error("durable state write failed",
			"record_id", rec.ID(),
			"field", c.field,
			"target", target.String(),
			"error", err,
		)
		return outcome, err
	}

	event := &domain.TransitionEvent{
		Timestamp: time.Now(),
		RecordID:  rec.ID(),
		Field:     c.field,
		From:      outcome.Previous,
		To:        target.String(),
		Committed: outcome.Committed,
	}

	if outcome.Committed {
		c.logger.Debug("committed state write",
			"record_id", rec.ID(),
			"field", c.field,
			"from", outcome.Previous,
			"to", target.String(),
		)
		if c.hooks.OnCommit != nil {
			c.hooks.OnCommit(ctx, event)
		}
	} else {
		c.logger.Warn("rolled back state write",
			"record_id", rec.ID(),
			"field", c.field,
			"from", outcome.Previous,
			"to", target.String(),
		)
		if c.hooks.OnRollback != nil {
			c.hooks.OnRollback(ctx, event)
		}
	}

	return outcome, nil
}

// WriteStateDeferred applies the target state to the record only, deferring
// persistence to a later caller-controlled save. It always succeeds from the
// coordinator's perspective.
func (c *Coordinator) WriteStateDeferred(ctx context.Context, rec ports.Record, target domain.State) {
	previous := rec.Get(c.field)
	c.deferred(rec, c.field, target)

	c.logger.Debug("applied deferred state write",
		"record_id", rec.ID(),
		"field", c.field,
		"from", previous,
		"to", target.String(),
	)

	if c.hooks.OnDeferred != nil {
		c.hooks.OnDeferred(ctx, &domain.TransitionEvent{
			Timestamp: time.Now(),
			RecordID:  rec.ID(),
			Field:     c.field,
			From:      previous,
			To:        target.String(),
			Committed: false,
			Deferred:  true,
		})
	}
}
