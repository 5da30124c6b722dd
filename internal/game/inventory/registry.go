package inventory

import (
	"fmt"
	"strings"
)

// Registry holds all loaded item definitions indexed by case-insensitive name.
// It is read-only after load and safe for concurrent reads.
type Registry struct {
	items map[string]*ItemDef
	order []*ItemDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*ItemDef)}
}

// NewRegistryFrom builds a Registry from defs, failing on the first duplicate name.
func NewRegistryFrom(defs []*ItemDef) (*Registry, error) {
	r := NewRegistry()
	for _, d := range defs {
		if err := r.RegisterItem(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterItem adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: ByName(d.Name) returns d; returns error if the name is already registered.
func (r *Registry) RegisterItem(d *ItemDef) error {
	key := strings.ToLower(strings.TrimSpace(d.Name))
	if _, exists := r.items[key]; exists {
		return fmt.Errorf("inventory: Registry.RegisterItem: item %q already registered", d.Name)
	}
	r.items[key] = d
	r.order = append(r.order, d)
	return nil
}

// ByName returns the ItemDef named name (case-insensitive), or nil if not found.
func (r *Registry) ByName(name string) *ItemDef {
	return r.items[strings.ToLower(strings.TrimSpace(name))]
}

// All returns every registered item in registration order.
func (r *Registry) All() []*ItemDef {
	return append([]*ItemDef(nil), r.order...)
}
