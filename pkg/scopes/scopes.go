/*
Package scopes exposes one query-by-state entry point per declared FSM state.

Scopes are registered once at setup time against the declared state list and
checked for name collisions there, instead of synthesizing query methods at
runtime. Each scope queries record IDs through the ports.StateFinder
capability of a store.
*/
package scopes

import (
	"context"
	"fmt"
	"sort"

	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/ports"
)

// Scope is a named query entry point for a single declared state.
type Scope struct {
	name  string
	field string
	state domain.State
}

// Name returns the scope's name, equal to the state label it queries.
func (s *Scope) Name() string {
	return s.name
}

// State returns the state the scope queries for.
func (s *Scope) State() domain.State {
	return s.state
}

// Query returns the IDs of records currently in the scope's state.
func (s *Scope) Query(ctx context.Context, finder ports.StateFinder) ([]string, error) {
	return finder.FindByState(ctx, s.field, s.state)
}

// Set holds the scopes generated for a declared state list.
type Set struct {
	field  string
	scopes map[string]*Scope
}

// NewSet builds one scope per declared state for records whose state lives in
// field. Declaring the same state twice is a setup error, mirroring the
// collision check a host would otherwise need before grafting query helpers
// onto its own types.
func NewSet(field string, states []domain.State) (*Set, error) {
	if field == "" {
		return nil, fmt.Errorf("state field name cannot be empty")
	}

	set := &Set{
		field:  field,
		scopes: make(map[string]*Scope, len(states)),
	}
	for _, state := range states {
		if state.IsBlank() {
			return nil, fmt.Errorf("declared state cannot be blank")
		}
		name := state.String()
		if _, exists := set.scopes[name]; exists {
			return nil, fmt.Errorf("scope %q already declared", name)
		}
		set.scopes[name] = &Scope{
			name:  name,
			field: field,
			state: state,
		}
	}
	return set, nil
}

// Scope looks up a scope by name.
func (s *Set) Scope(name string) (*Scope, bool) {
	scope, ok := s.scopes[name]
	return scope, ok
}

// Names returns the declared scope names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.scopes))
	for name := range s.scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Query is a convenience that resolves a scope by name and runs it.
func (s *Set) Query(ctx context.Context, finder ports.StateFinder, name string) ([]string, error) {
	scope, ok := s.Scope(name)
	if !ok {
		return nil, fmt.Errorf("scope not found: %s", name)
	}
	return scope.Query(ctx, finder)
}
