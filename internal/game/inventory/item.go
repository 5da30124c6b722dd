// Package inventory provides the item catalog: weapons, charged implements,
// consumables and their loaders.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/adventure/internal/game/effect"
)

// ItemType classifies what an item is for.
type ItemType string

// Item types.
const (
	TypeWeapon     ItemType = "weapon"
	TypeMagical    ItemType = "magical"
	TypeConsumable ItemType = "consumable"
	TypeArmor      ItemType = "armor"
	TypeJunk       ItemType = "junk"
)

var validTypes = map[ItemType]bool{
	TypeWeapon:     true,
	TypeMagical:    true,
	TypeConsumable: true,
	TypeArmor:      true,
	TypeJunk:       true,
}

// SubType refines weapons and implements.
type SubType string

// Item sub-types.
const (
	SubTypeMelee  SubType = "melee"
	SubTypeRanged SubType = "ranged"
	SubTypeWand   SubType = "wand"
)

var validSubTypes = map[SubType]bool{
	"":            true,
	SubTypeMelee:  true,
	SubTypeRanged: true,
	SubTypeWand:   true,
}

// ItemDef defines the static properties of an item loaded from content.
//
// Usages counts the charges of a wand; Uses counts the doses of a consumable.
// At most one of them is set.
type ItemDef struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	ItemType    ItemType        `yaml:"itemType"`
	SubType     SubType         `yaml:"subType,omitempty"`
	Effects     []effect.Effect `yaml:"effects"`
	Usages      *int            `yaml:"usages,omitempty"`
	Uses        *int            `yaml:"uses,omitempty"`
	Value       int             `yaml:"value,omitempty"`
}

// IsEquippable reports whether using the item equips it rather than consuming it.
func (d *ItemDef) IsEquippable() bool {
	return d.ItemType == TypeWeapon || d.ItemType == TypeMagical
}

// IsWand reports whether the item is a charged implement.
func (d *ItemDef) IsWand() bool {
	return d.SubType == SubTypeWand
}

// FiniteUses returns the initial counter of a finite-use item.
//
// Postcondition: ok is false when the item declares neither usages nor uses.
func (d *ItemDef) FiniteUses() (n int, ok bool) {
	if d.Usages != nil {
		return *d.Usages, true
	}
	if d.Uses != nil {
		return *d.Uses, true
	}
	return 0, false
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validTypes[d.ItemType] {
		errs = append(errs, fmt.Errorf("itemType must be one of weapon, magical, consumable, armor, junk; got %q", d.ItemType))
	}
	if !validSubTypes[d.SubType] {
		errs = append(errs, fmt.Errorf("subType must be one of melee, ranged, wand; got %q", d.SubType))
	}
	if d.Usages != nil && d.Uses != nil {
		errs = append(errs, errors.New("usages and uses are mutually exclusive"))
	}
	if n, ok := d.FiniteUses(); ok && n < 1 {
		errs = append(errs, fmt.Errorf("finite use counter must be >= 1, got %d", n))
	}
	if d.IsWand() && d.Usages == nil {
		errs = append(errs, errors.New("wand requires usages"))
	}
	if d.Value < 0 {
		errs = append(errs, errors.New("value must be >= 0"))
	}
	if err := effect.ValidateAll(d.Effects); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q: %w", d.Name, errors.Join(errs...))
	}
	return nil
}

// LoadItemsFromBytes parses a list of item definitions and validates each.
func LoadItemsFromBytes(data []byte) ([]*ItemDef, error) {
	var defs []*ItemDef
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing items: %w", err)
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// LoadItems reads every .yaml, .yml and .json file in dir, each holding a
// list of item definitions, validates them, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml" && ext != ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		defs, err := LoadItemsFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: %q: %w", path, err)
		}
		items = append(items, defs...)
	}
	return items, nil
}
