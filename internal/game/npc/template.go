// Package npc provides enemy template definitions, spawned instances and the
// encounter spawner.
package npc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/effect"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
)

// DefaultCR is the challenge rating assumed when a template omits cr.
const DefaultCR = 1.0

// HPRange is a template's hit point declaration: either a fixed value or a
// [Min, Max] range sampled at spawn time.
type HPRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// UnmarshalYAML accepts `max_hp: 12` or `max_hp: {min: 8, max: 14}`.
func (h *HPRange) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var v int
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("max_hp: %w", err)
		}
		h.Min, h.Max = v, v
		return nil
	case yaml.MappingNode:
		type plain HPRange
		var p plain
		if err := n.Decode(&p); err != nil {
			return fmt.Errorf("max_hp: %w", err)
		}
		*h = HPRange(p)
		return nil
	}
	return fmt.Errorf("max_hp must be an integer or a {min, max} mapping at line %d", n.Line)
}

// MarshalYAML writes a fixed range as a plain integer.
func (h HPRange) MarshalYAML() (any, error) {
	if h.Fixed() {
		return h.Min, nil
	}
	type plain HPRange
	return plain(h), nil
}

// Fixed reports whether the range is a single value.
func (h HPRange) Fixed() bool {
	return h.Min == h.Max
}

// Roll samples a value uniformly in [Min, Max].
//
// Precondition: 1 <= Min <= Max.
func (h HPRange) Roll(src dice.Source) int {
	if h.Fixed() {
		return h.Min
	}
	return h.Min + src.Intn(h.Max-h.Min+1)
}

// Attack is one named enemy attack.
type Attack struct {
	Name    string            `yaml:"name"`
	SubType inventory.SubType `yaml:"subType"`
	Effects []effect.Effect   `yaml:"effects"`
}

// Template defines a reusable enemy archetype loaded from content.
// Templates are shared, read-only catalog data; spawning deep-copies them.
type Template struct {
	Name        string                  `yaml:"name"`
	Description string                  `yaml:"description"`
	Level       int                     `yaml:"level"`
	CR          float64                 `yaml:"cr"`
	MaxHP       HPRange                 `yaml:"max_hp"`
	Stats       character.AbilityScores `yaml:"stats"`
	Attacks     []Attack                `yaml:"attacks"`
	Loot        *LootTable              `yaml:"loot,omitempty"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff Name is non-empty, Level >= 1, CR >= 0,
// 1 <= MaxHP.Min <= MaxHP.Max, at least one attack is declared and every
// attack and loot entry is valid.
func (t *Template) Validate() error {
	var errs []error
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if t.Level < 1 {
		errs = append(errs, errors.New("level must be >= 1"))
	}
	if t.CR < 0 {
		errs = append(errs, errors.New("cr must be >= 0"))
	}
	if t.MaxHP.Min < 1 || t.MaxHP.Min > t.MaxHP.Max {
		errs = append(errs, fmt.Errorf("max_hp range [%d, %d] invalid", t.MaxHP.Min, t.MaxHP.Max))
	}
	if len(t.Attacks) == 0 {
		errs = append(errs, errors.New("at least one attack is required"))
	}
	for i, a := range t.Attacks {
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("attack %d: name must not be empty", i))
		}
		if a.SubType != "" && a.SubType != inventory.SubTypeMelee && a.SubType != inventory.SubTypeRanged {
			errs = append(errs, fmt.Errorf("attack %q: subType must be melee or ranged, got %q", a.Name, a.SubType))
		}
		if err := effect.ValidateAll(a.Effects); err != nil {
			errs = append(errs, fmt.Errorf("attack %q: %w", a.Name, err))
		}
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("npc template %q: %w", t.Name, errors.Join(errs...))
	}
	return nil
}

// LoadTemplatesFromBytes parses a list of enemy templates, fills defaults and validates each.
//
// Postcondition: Returns validated templates with CR defaulted to DefaultCR when omitted.
func LoadTemplatesFromBytes(data []byte) ([]*Template, error) {
	var tmpls []*Template
	if err := yaml.Unmarshal(data, &tmpls); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	for _, t := range tmpls {
		if t.CR == 0 {
			t.CR = DefaultCR
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return tmpls, nil
}

// LoadTemplates reads all .yaml, .yml and .json files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml" && ext != ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpls, err := LoadTemplatesFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpls...)
	}
	return templates, nil
}
