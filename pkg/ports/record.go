package ports

// Record is the entity being state-managed. The coordinator never owns a
// Record; it is handed a reference per call and mutates the named field
// through it.
type Record interface {
	// ID returns an identity sufficient for a store to locate the record.
	ID() string

	// Get returns the raw value of a field. Unset fields read as "".
	Get(field string) string

	// Set overwrites the raw value of a field.
	Set(field, value string)

	// Fields returns a snapshot of all fields for serialization by stores.
	Fields() map[string]string
}
