package domain

import (
	"context"
	"time"
)

// TransitionEvent describes a state write performed by the coordinator.
type TransitionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RecordID  string    `json:"record_id"`
	Field     string    `json:"field"`
	From      string    `json:"from"` // raw pre-write value, may be blank
	To        string    `json:"to"`
	Committed bool      `json:"committed"`
	Deferred  bool      `json:"deferred,omitempty"`
}

// InitialStateEvent describes an initial state populated into a blank field.
type InitialStateEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RecordID  string    `json:"record_id"`
	Field     string    `json:"field"`
	State     string    `json:"state"`
}

// Hooks defines callbacks for coordinator observability.
// Any callback may be nil; the coordinator skips nil hooks.
type Hooks struct {
	OnInitialState func(context.Context, *InitialStateEvent)
	OnCommit       func(context.Context, *TransitionEvent)
	OnRollback     func(context.Context, *TransitionEvent)
	OnDeferred     func(context.Context, *TransitionEvent)
}
