package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/ports"
)

// Store implements ports.DocumentStore in memory.
// Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string]string

	validators  []ports.ValidateFunc
	constraints []ports.ValidateFunc
}

// Option configures the Store.
type Option func(*Store)

// WithValidators adds record validation rules. They run on validating
// persists only; PersistOptions{Validate: false} bypasses them, the way a
// durable state write requires.
func WithValidators(validators ...ports.ValidateFunc) Option {
	return func(s *Store) {
		s.validators = append(s.validators, validators...)
	}
}

// WithConstraints adds store-layer constraints (the in-memory analog of a
// uniqueness or schema constraint). They run on every persist and cannot be
// bypassed; a violation maps to a refused save, not an error.
func WithConstraints(constraints ...ports.ValidateFunc) Option {
	return func(s *Store) {
		s.constraints = append(s.constraints, constraints...)
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data: make(map[string]map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persist saves a snapshot of the record's fields.
// Validation and constraint failures report a refused save with a nil error.
func (s *Store) Persist(ctx context.Context, rec ports.Record, opts ports.PersistOptions) (bool, error) {
	if opts.Validate {
		for _, validate := range s.validators {
			if err := validate(rec); err != nil {
				return false, nil
			}
		}
	}
	for _, constraint := range s.constraints {
		if err := constraint(rec); err != nil {
			return false, nil
		}
	}

	// Snapshot to ensure isolation, similar to serialization
	fields := rec.Fields()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.ID()] = fields
	return true, nil
}

// Load retrieves the record from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.data[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	// NewDocument copies the fields, so the caller can't mutate store state.
	return domain.NewDocument(id, fields), nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// FindByState returns the IDs of records whose field holds the given state.
func (s *Store) FindByState(ctx context.Context, field string, state domain.State) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, fields := range s.data {
		if fields[field] == state.String() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
