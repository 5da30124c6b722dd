// Package character defines the Actor model shared by player characters and
// spawned enemies, together with its clamped mutation rules.
package character

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Ability names one of the six fixed ability scores.
type Ability string

// The six ability scores.
const (
	STR Ability = "STR"
	CON Ability = "CON"
	DEX Ability = "DEX"
	INT Ability = "INT"
	WIS Ability = "WIS"
	CHA Ability = "CHA"
)

// Abilities lists every ability in sheet order.
var Abilities = []Ability{STR, CON, DEX, INT, WIS, CHA}

// AbilityScores holds the six ability score values of an actor.
type AbilityScores struct {
	STR int `json:"STR" yaml:"STR"`
	CON int `json:"CON" yaml:"CON"`
	DEX int `json:"DEX" yaml:"DEX"`
	INT int `json:"INT" yaml:"INT"`
	WIS int `json:"WIS" yaml:"WIS"`
	CHA int `json:"CHA" yaml:"CHA"`
}

// Score returns the raw score for ab. Unknown abilities score 0.
func (a AbilityScores) Score(ab Ability) int {
	switch ab {
	case STR:
		return a.STR
	case CON:
		return a.CON
	case DEX:
		return a.DEX
	case INT:
		return a.INT
	case WIS:
		return a.WIS
	case CHA:
		return a.CHA
	}
	return 0
}

// Mod returns the modifier of the score for ab.
func (a AbilityScores) Mod(ab Ability) int {
	return AbilityMod(a.Score(ab))
}

// Sum returns the total of all six scores.
func (a AbilityScores) Sum() int {
	return a.STR + a.CON + a.DEX + a.INT + a.WIS + a.CHA
}

// AbilityMod computes the ability modifier floor((score-10)/2).
//
// Postcondition: AbilityMod(10) == 0, AbilityMod(12) == 1, AbilityMod(8) == -1,
// and the result is non-decreasing in score.
func AbilityMod(score int) int {
	return int(math.Floor(float64(score-10) / 2.0))
}

// ManaPool is the optional spell resource of an actor.
//
// Invariant: 0 <= Current <= Max.
type ManaPool struct {
	Current int `json:"current" yaml:"current"`
	Max     int `json:"max" yaml:"max"`
}

// Character is an Actor: a player character or a spawned enemy.
//
// ID is set by the persistence layer; zero indicates an unsaved character.
// Target is combat-only state and is never serialized or persisted.
type Character struct {
	ID int64 `json:"id,omitempty"`

	Name             string `json:"name"`
	Race             string `json:"race,omitempty"`
	Class            string `json:"class,omitempty"`
	Description      string `json:"description,omitempty"`
	Birthplace       string `json:"birthplace,omitempty"`
	EthicalAlignment string `json:"alignment_righteousness,omitempty"`
	MoralAlignment   string `json:"alignment_morality,omitempty"`

	Level      int `json:"level"`
	Experience int `json:"xp"`
	Gold       int `json:"gold"`

	CurrentHP int       `json:"current_hp"`
	MaxHP     int       `json:"max_hp"`
	Mana      *ManaPool `json:"mana,omitempty"`

	Stats          AbilityScores `json:"stats"`
	EquippedWeapon string        `json:"equipped_weapon,omitempty"`
	Inventory      []string      `json:"inventory"`
	Skills         []string      `json:"skills"`
	// Charges tracks remaining uses of finite-use items the actor carries, keyed by item name.
	Charges map[string]int `json:"charges,omitempty"`

	Location string `json:"location,omitempty"`
	Quest    string `json:"quest,omitempty"`

	Target int `json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// IsAlive reports whether the actor has hit points remaining.
func (c *Character) IsAlive() bool {
	return c.CurrentHP > 0
}

// ApplyDamage subtracts dmg from CurrentHP, clamped to [0, MaxHP].
//
// Precondition: dmg >= 0; negative values are treated as 0.
// Postcondition: 0 <= c.CurrentHP <= c.MaxHP; returns the HP after the hit.
func (c *Character) ApplyDamage(dmg int) int {
	if dmg < 0 {
		dmg = 0
	}
	c.CurrentHP = clamp(c.CurrentHP-dmg, 0, c.MaxHP)
	return c.CurrentHP
}

// Heal adds amount to CurrentHP, clamped to MaxHP.
//
// Postcondition: returns the HP actually restored.
func (c *Character) Heal(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := c.CurrentHP
	c.CurrentHP = clamp(c.CurrentHP+amount, 0, c.MaxHP)
	return c.CurrentHP - before
}

// AdjustMaxHP changes MaxHP by delta, never below 1, and clamps CurrentHP to the new ceiling.
func (c *Character) AdjustMaxHP(delta int) {
	c.MaxHP += delta
	if c.MaxHP < 1 {
		c.MaxHP = 1
	}
	c.CurrentHP = clamp(c.CurrentHP, 0, c.MaxHP)
}

// ManaAvailable returns current mana, or 0 for actors without a mana pool.
func (c *Character) ManaAvailable() int {
	if c.Mana == nil {
		return 0
	}
	return c.Mana.Current
}

// SpendMana deducts cost when the actor can afford it.
//
// Postcondition: returns false with no mutation when cost exceeds available mana.
func (c *Character) SpendMana(cost int) bool {
	if cost <= 0 {
		return true
	}
	if c.Mana == nil || c.Mana.Current < cost {
		return false
	}
	c.Mana.Current -= cost
	return true
}

// RestoreMana adds amount (which may be negative) to current mana, clamped to [0, Max].
// Actors without a mana pool are unaffected.
func (c *Character) RestoreMana(amount int) {
	if c.Mana == nil {
		return
	}
	c.Mana.Current = clamp(c.Mana.Current+amount, 0, c.Mana.Max)
}

// HasItem looks up name in the inventory case-insensitively.
//
// Postcondition: returns the stored inventory name and true on a match.
func (c *Character) HasItem(name string) (string, bool) {
	for _, it := range c.Inventory {
		if strings.EqualFold(it, name) {
			return it, true
		}
	}
	return "", false
}

// CountItem returns how many copies of name the inventory holds.
func (c *Character) CountItem(name string) int {
	n := 0
	for _, it := range c.Inventory {
		if strings.EqualFold(it, name) {
			n++
		}
	}
	return n
}

// AddItem appends name to the inventory.
func (c *Character) AddItem(name string) {
	c.Inventory = append(c.Inventory, name)
}

// RemoveItem removes one occurrence of name from the inventory.
//
// Postcondition: returns false when name is not carried.
func (c *Character) RemoveItem(name string) bool {
	for i, it := range c.Inventory {
		if strings.EqualFold(it, name) {
			c.Inventory = append(c.Inventory[:i], c.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// KnowsSkill reports whether the actor's skill list contains name, case-insensitively.
func (c *Character) KnowsSkill(name string) bool {
	for _, s := range c.Skills {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// RemainingUses returns the tracked uses left for item, or initial when untracked.
func (c *Character) RemainingUses(item string, initial int) int {
	if n, ok := c.Charges[strings.ToLower(item)]; ok {
		return n
	}
	return initial
}

// SetRemainingUses records the uses left for item.
func (c *Character) SetRemainingUses(item string, n int) {
	if c.Charges == nil {
		c.Charges = make(map[string]int)
	}
	c.Charges[strings.ToLower(item)] = n
}

// ClearUses forgets the tracked uses for item, so the next copy starts fresh.
func (c *Character) ClearUses(item string) {
	delete(c.Charges, strings.ToLower(item))
}

// Clone returns a deep copy; no slice, map or pointer is shared with c.
func (c *Character) Clone() *Character {
	cp := *c
	if c.Mana != nil {
		m := *c.Mana
		cp.Mana = &m
	}
	cp.Inventory = append([]string(nil), c.Inventory...)
	cp.Skills = append([]string(nil), c.Skills...)
	if c.Charges != nil {
		cp.Charges = make(map[string]int, len(c.Charges))
		for k, v := range c.Charges {
			cp.Charges[k] = v
		}
	}
	return &cp
}

// Validate checks the actor invariants.
//
// Postcondition: returns nil when every invariant holds, otherwise an error naming each violation.
func (c *Character) Validate() error {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if c.Level < 1 {
		errs = append(errs, fmt.Sprintf("level must be >= 1, got %d", c.Level))
	}
	if c.MaxHP < 1 {
		errs = append(errs, fmt.Sprintf("max_hp must be >= 1, got %d", c.MaxHP))
	}
	if c.CurrentHP < 0 || c.CurrentHP > c.MaxHP {
		errs = append(errs, fmt.Sprintf("current_hp %d out of range [0, %d]", c.CurrentHP, c.MaxHP))
	}
	if c.Mana != nil && (c.Mana.Current < 0 || c.Mana.Current > c.Mana.Max) {
		errs = append(errs, fmt.Sprintf("mana %d out of range [0, %d]", c.Mana.Current, c.Mana.Max))
	}
	if len(errs) > 0 {
		return fmt.Errorf("character %q: %s", c.Name, strings.Join(errs, "; "))
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
