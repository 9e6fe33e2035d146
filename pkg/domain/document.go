package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Document is a map-backed record. It is the canonical implementation of the
// Record port and the value store adapters load documents into.
//
// A Document is plain shared mutable state: concurrent operations against the
// same instance must be serialized by the caller.
type Document struct {
	id     string
	fields map[string]string
}

// NewDocument creates a document with the given identity and initial fields.
// The fields map is copied so the caller retains ownership of its map.
func NewDocument(id string, fields map[string]string) *Document {
	d := &Document{
		id:     id,
		fields: make(map[string]string, len(fields)),
	}
	for k, v := range fields {
		d.fields[k] = v
	}
	return d
}

// ID returns the identity the store uses to locate the document.
func (d *Document) ID() string {
	return d.id
}

// Get returns the raw value of a field. Unset fields read as the empty string.
func (d *Document) Get(field string) string {
	return d.fields[field]
}

// Set overwrites the raw value of a field.
func (d *Document) Set(field, value string) {
	d.fields[field] = value
}

// Fields returns a snapshot copy of all fields for serialization.
func (d *Document) Fields() map[string]string {
	out := make(map[string]string, len(d.fields))
	for k, v := range d.fields {
		out[k] = v
	}
	return out
}

// Decode maps the document's fields onto a struct using mapstructure tags,
// with weak typing so numeric and boolean fields decode from their raw
// string representation.
func (d *Document) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(d.fields); err != nil {
		return fmt.Errorf("failed to decode document %q: %w", d.id, err)
	}
	return nil
}
