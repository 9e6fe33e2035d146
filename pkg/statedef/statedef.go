/*
Package statedef loads a declarative description of an FSM's state set: the
declared states, the designated initial state, and optional conditional
initial-state rules.

It yields the InitialStateSupplier the coordinator needs and the state list
scope sets are generated from. The FSM graph itself — events, guards,
callbacks — is out of scope and belongs to the engine driving the coordinator.
*/
package statedef

import (
	"fmt"
	"os"

	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Rule is a conditional initial-state rule: the first rule whose record field
// matches selects the initial state.
type Rule struct {
	Field  string       `yaml:"field"`
	Equals string       `yaml:"equals"`
	State  domain.State `yaml:"state"`
}

// Definition describes the declared state set of one entity type.
type Definition struct {
	// Field is the record field holding the persisted state.
	Field string `yaml:"field"`

	// States is the finite set of declared state labels.
	States []domain.State `yaml:"states"`

	// Initial is the designated initial state when no rule matches.
	Initial domain.State `yaml:"initial"`

	// InitialWhen holds conditional initial-state rules, evaluated in order.
	InitialWhen []Rule `yaml:"initial_when,omitempty"`
}

// Parse decodes a YAML definition and validates it.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse state definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and parses a YAML definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state definition: %w", err)
	}
	return Parse(data)
}

// Validate checks the definition's internal consistency: a field name, a
// non-empty declared set, and an initial state (and every rule state) drawn
// from that set.
func (d *Definition) Validate() error {
	if d.Field == "" {
		return fmt.Errorf("state field name cannot be empty")
	}
	if len(d.States) == 0 {
		return fmt.Errorf("at least one state must be declared")
	}
	declared := make(map[domain.State]bool, len(d.States))
	for _, state := range d.States {
		if state.IsBlank() {
			return fmt.Errorf("declared state cannot be blank")
		}
		if declared[state] {
			return fmt.Errorf("state %q declared twice", state)
		}
		declared[state] = true
	}
	if d.Initial.IsBlank() {
		return fmt.Errorf("initial state cannot be blank")
	}
	if !declared[d.Initial] {
		return fmt.Errorf("initial state %q is not a declared state", d.Initial)
	}
	for _, rule := range d.InitialWhen {
		if rule.Field == "" {
			return fmt.Errorf("initial-state rule is missing a field")
		}
		if !declared[rule.State] {
			return fmt.Errorf("initial-state rule targets undeclared state %q", rule.State)
		}
	}
	return nil
}

// Has reports whether the state is part of the declared set.
func (d *Definition) Has(state domain.State) bool {
	for _, s := range d.States {
		if s == state {
			return true
		}
	}
	return false
}

// Supplier returns the initial-state supplier for this definition: the first
// matching conditional rule wins, otherwise the designated initial state.
// The supplier only reads record data, so it is deterministic per snapshot.
func (d *Definition) Supplier() ports.InitialStateSupplier {
	rules := make([]Rule, len(d.InitialWhen))
	copy(rules, d.InitialWhen)
	initial := d.Initial

	return ports.SupplierFunc(func(rec ports.Record) domain.State {
		for _, rule := range rules {
			if rec.Get(rule.Field) == rule.Equals {
				return rule.State
			}
		}
		return initial
	})
}
