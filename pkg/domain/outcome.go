package domain

// WriteOutcome is the result of a durable state write.
// It is a transient value, never persisted.
type WriteOutcome struct {
	// Committed is true when the store accepted the save and the record's
	// in-memory field holds the requested target state.
	Committed bool

	// Previous holds the raw pre-write field value. It is the value the
	// record was restored to when the write rolled back, including the
	// blank sentinel for records that had no state yet.
	Previous string
}

// RolledBack reports whether the write was rejected and the record's field
// restored to its pre-write value.
func (o WriteOutcome) RolledBack() bool {
	return !o.Committed
}
