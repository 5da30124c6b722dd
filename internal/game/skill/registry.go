package skill

import (
	"fmt"
	"strings"
)

// Registry is a read-only-after-load catalog of skills keyed by
// case-insensitive name. Safe for concurrent reads.
type Registry struct {
	byName map[string]*Def
	order  []*Def
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Def)}
}

// NewRegistryFrom builds a Registry from defs.
//
// Postcondition: returns an error on the first duplicate name.
func NewRegistryFrom(defs []*Def) (*Registry, error) {
	r := NewRegistry()
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds d to the registry.
//
// Precondition: d must not be nil.
// Postcondition: ByName(d.Name) returns d; returns error if the name is already registered.
func (r *Registry) Register(d *Def) error {
	key := strings.ToLower(strings.TrimSpace(d.Name))
	if _, exists := r.byName[key]; exists {
		return fmt.Errorf("skill: Registry.Register: skill %q already registered", d.Name)
	}
	r.byName[key] = d
	r.order = append(r.order, d)
	return nil
}

// ByName returns the skill named name (case-insensitive), or nil on a miss.
func (r *Registry) ByName(name string) *Def {
	return r.byName[strings.ToLower(strings.TrimSpace(name))]
}

// All returns every skill in registration order.
func (r *Registry) All() []*Def {
	return append([]*Def(nil), r.order...)
}

// Names returns every skill name in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	for i, d := range r.order {
		out[i] = d.Name
	}
	return out
}
