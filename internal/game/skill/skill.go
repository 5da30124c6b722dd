// Package skill holds the skill catalog: named actions with a type, a
// minimum level and an ordered list of effects.
package skill

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/adventure/internal/game/effect"
)

// Type classifies how a skill resolves.
type Type string

// Skill types.
const (
	TypeAttack Type = "attack"
	TypeMagic  Type = "magic"
	TypeBuff   Type = "buff"
	TypeDebuff Type = "debuff"
)

var validTypes = map[Type]bool{
	TypeAttack: true,
	TypeMagic:  true,
	TypeBuff:   true,
	TypeDebuff: true,
}

// Def is an immutable skill definition loaded from content.
type Def struct {
	Name        string          `yaml:"name"`
	Type        Type            `yaml:"type"`
	MinLevel    int             `yaml:"min_lv"`
	Description string          `yaml:"description"`
	Effects     []effect.Effect `yaml:"effects"`
}

// IsSpell reports whether the skill is magic, buff or debuff. Spells never
// roll against defense; they succeed or fail on mana alone.
func (d *Def) IsSpell() bool {
	return d.Type == TypeMagic || d.Type == TypeBuff || d.Type == TypeDebuff
}

// ManaCost returns the total mana cost of the skill's effects.
func (d *Def) ManaCost() int {
	return effect.ManaCost(d.Effects)
}

// Validate checks that d satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *Def) Validate() error {
	var errs []error
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validTypes[d.Type] {
		errs = append(errs, fmt.Errorf("type must be one of attack, magic, buff, debuff; got %q", d.Type))
	}
	if d.MinLevel < 0 {
		errs = append(errs, errors.New("min_lv must be >= 0"))
	}
	if err := effect.ValidateAll(d.Effects); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("skill %q: %w", d.Name, errors.Join(errs...))
	}
	return nil
}

// LoadSkillsFromBytes parses a list of skill definitions and validates each.
//
// Postcondition: returns every definition in file order, or the first error.
func LoadSkillsFromBytes(data []byte) ([]*Def, error) {
	var defs []*Def
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing skills: %w", err)
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// LoadSkills reads every .yaml, .yml and .json file in dir, each holding a
// list of skill definitions. Files are read in name order.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid definitions or the first encountered error.
func LoadSkills(dir string) ([]*Def, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadSkills: cannot read directory %q: %w", dir, err)
	}
	var out []*Def
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml" && ext != ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadSkills: cannot read file %q: %w", path, err)
		}
		defs, err := LoadSkillsFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("LoadSkills: %q: %w", path, err)
		}
		out = append(out, defs...)
	}
	return out, nil
}
