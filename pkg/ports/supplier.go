package ports

import "github.com/statorhq/stator/pkg/domain"

// InitialStateSupplier computes the FSM's designated initial state for a
// record. It may inspect record data (conditional initial states) but must be
// deterministic for a given record snapshot.
type InitialStateSupplier interface {
	Compute(rec Record) domain.State
}

// SupplierFunc adapts a plain function to the InitialStateSupplier interface.
type SupplierFunc func(rec Record) domain.State

// Compute calls the wrapped function.
func (f SupplierFunc) Compute(rec Record) domain.State {
	return f(rec)
}

// StaticSupplier returns a supplier that yields the same state for every
// record, the common case of an unconditional initial state.
func StaticSupplier(state domain.State) InitialStateSupplier {
	return SupplierFunc(func(Record) domain.State {
		return state
	})
}
