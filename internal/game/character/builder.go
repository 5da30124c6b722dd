package character

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Character sheet limits.
const (
	MinAbilityScore = 5
	MaxAbilityTotal = 45
)

// Sheet is a hand-written character sheet, read from YAML or JSON.
// Fields are optional; FromSheet fills defaults and enforces the sheet rules.
type Sheet struct {
	Name             string        `json:"name" yaml:"name"`
	Race             string        `json:"race" yaml:"race"`
	Class            string        `json:"class" yaml:"class"`
	MaxHP            int           `json:"max_hp" yaml:"max_hp"`
	Gold             int           `json:"gold" yaml:"gold"`
	XP               int           `json:"xp" yaml:"xp"`
	Level            int           `json:"level" yaml:"level"`
	Mana             int           `json:"mana" yaml:"mana"`
	Inventory        []string      `json:"inventory" yaml:"inventory"`
	EquippedWeapon   string        `json:"equipped_weapon" yaml:"equipped_weapon"`
	EthicalAlignment string        `json:"alignment_righteousness" yaml:"alignment_righteousness"`
	MoralAlignment   string        `json:"alignment_morality" yaml:"alignment_morality"`
	Birthplace       string        `json:"birthplace" yaml:"birthplace"`
	Skills           []string      `json:"skills" yaml:"skills"`
	Description      string        `json:"description" yaml:"description"`
	Stats            AbilityScores `json:"stats" yaml:"stats"`
}

// LoadSheet reads a character sheet file. JSON sheets parse too, JSON being
// valid YAML for these flat documents.
//
// Postcondition: unknown fields are rejected so a misspelled key is not
// silently dropped.
func LoadSheet(path string) (Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("opening character sheet: %w", err)
	}
	defer f.Close()
	var sheet Sheet
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&sheet); err != nil {
		return Sheet{}, fmt.Errorf("parsing character sheet %s: %w", path, err)
	}
	return sheet, nil
}

// ValidateStats enforces the creation rules: every score at least
// MinAbilityScore and a total not above MaxAbilityTotal.
func ValidateStats(a AbilityScores) error {
	var errs []error
	for _, ab := range Abilities {
		if s := a.Score(ab); s < MinAbilityScore {
			errs = append(errs, fmt.Errorf("%s %d below minimum %d", ab, s, MinAbilityScore))
		}
	}
	if sum := a.Sum(); sum > MaxAbilityTotal {
		errs = append(errs, fmt.Errorf("ability total %d exceeds %d", sum, MaxAbilityTotal))
	}
	return errors.Join(errs...)
}

// FromSheet builds a ready-to-play Character from sheet.
// Skills are matched case-insensitively against catalogSkills and deduplicated;
// when none match, the first catalog skill is assigned.
//
// Precondition: catalogSkills lists skill names in catalog order.
// Postcondition: returns a Character with CurrentHP == MaxHP, or an error when
// the sheet breaks the creation rules.
func FromSheet(sheet Sheet, catalogSkills []string) (*Character, error) {
	name := strings.TrimSpace(sheet.Name)
	if name == "" {
		return nil, errors.New("character sheet: name must not be empty")
	}
	if err := ValidateStats(sheet.Stats); err != nil {
		return nil, fmt.Errorf("character sheet %q: %w", name, err)
	}

	level := sheet.Level
	if level < 1 {
		level = 1
	}
	maxHP := sheet.MaxHP
	if maxHP < 1 {
		maxHP = 1
	}
	mana := sheet.Mana
	if mana < 0 {
		mana = 0
	}

	c := &Character{
		Name:             name,
		Race:             sheet.Race,
		Class:            sheet.Class,
		Description:      sheet.Description,
		Birthplace:       sheet.Birthplace,
		EthicalAlignment: sheet.EthicalAlignment,
		MoralAlignment:   sheet.MoralAlignment,
		Level:            level,
		Experience:       max(sheet.XP, 0),
		Gold:             max(sheet.Gold, 0),
		MaxHP:            maxHP,
		CurrentHP:        maxHP,
		Mana:             &ManaPool{Current: mana, Max: mana},
		Stats:            sheet.Stats,
		EquippedWeapon:   sheet.EquippedWeapon,
		Inventory:        append([]string{}, sheet.Inventory...),
		Skills:           matchSkills(sheet.Skills, catalogSkills),
	}
	return c, nil
}

// Placeholder returns the stand-in hero used when no character sheet is given.
//
// Postcondition: the result passes Validate.
func Placeholder(description string, catalogSkills []string) *Character {
	return &Character{
		Name:             "Unknown Hero",
		Race:             "Human",
		Class:            "Warrior",
		Description:      description,
		EthicalAlignment: "neutral",
		MoralAlignment:   "neutral",
		Level:            1,
		Gold:             50,
		MaxHP:            100,
		CurrentHP:        100,
		Mana:             &ManaPool{Current: 50, Max: 50},
		Stats:            AbilityScores{STR: 10, CON: 10, DEX: 10, INT: 5, WIS: 5, CHA: 5},
		EquippedWeapon:   "Short Sword",
		Inventory:        []string{"Short Sword"},
		Skills:           matchSkills(nil, catalogSkills),
	}
}

func matchSkills(wanted, catalog []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, w := range wanted {
		for _, s := range catalog {
			key := strings.ToLower(s)
			if strings.EqualFold(s, strings.TrimSpace(w)) && !seen[key] {
				out = append(out, s)
				seen[key] = true
				break
			}
		}
	}
	if len(out) == 0 && len(catalog) > 0 {
		out = append(out, catalog[0])
	}
	return out
}
