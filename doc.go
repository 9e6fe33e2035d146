/*
Package stator is a persistence coordinator for finite-state machines. It
synchronizes an entity's in-memory state field with a single persisted field
in a backing document store, keeping the FSM invariant that a transition is
either fully applied (state changed and durably saved) or fully rejected
(state unchanged, in-memory value reverted).

The coordinator never decides which state to transition to — that belongs to
the FSM engine driving it — only how the transition is committed.

# Concept

Stator sits between an FSM engine and a document store. The engine selects a
target state and hands it to the coordinator, which talks to a Record (the
entity) and a DocumentStore (durable saves) through narrow ports. This
Hexagonal Architecture lets Stator mediate state for any record shape and any
backend: the in-memory, Redis, and filesystem adapters under pkg/adapters are
reference implementations, not requirements.

# Key Features

  - Commit/Rollback Protocol: A durable write makes exactly one persist
    attempt; a refused save restores the exact pre-write value.
  - Deferred Writes: Soft transitions update the record only, leaving
    persistence to a later caller-controlled save.
  - Initial State Guarantee: A blank state field is populated before
    validation, without ever clobbering an explicitly set value.
  - Substitutable Strategies: Each operation can be overridden independently
    at construction time, without forking the component.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/statorhq/stator"
		"github.com/statorhq/stator/pkg/adapters/memory"
		"github.com/statorhq/stator/pkg/domain"
		"github.com/statorhq/stator/pkg/ports"
	)

	func main() {
		coord, err := stator.New("status")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		store := memory.NewStore()
		order := domain.NewDocument("order-1", nil)

		// Before validation: a blank field acquires the initial state.
		coord.EnsureInitialState(ctx, order, ports.StaticSupplier("pending"))

		// A hard transition event: committed or rolled back, never partial.
		outcome, err := coord.WriteState(ctx, order, "opened", store)
		if err != nil {
			log.Fatal(err) // store-level fault
		}
		if outcome.RolledBack() {
			log.Printf("transition refused, still %q", outcome.Previous)
		}
	}
*/
package stator
