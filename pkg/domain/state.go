package domain

import "strings"

// State is a label drawn from a finite, externally-defined set of states.
// The coordinator treats it as opaque; membership validation belongs to the
// FSM engine that selects target states.
type State string

// String returns the raw string representation persisted into the record.
func (s State) String() string {
	return string(s)
}

// IsBlank reports whether the state is empty or whitespace-only.
// A blank state is the sentinel for "not yet assigned".
func (s State) IsBlank() bool {
	return IsBlank(string(s))
}

// IsBlank reports whether a raw field value counts as unset.
// Empty and whitespace-only values are blank; "0" and "false" are not.
func IsBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}
