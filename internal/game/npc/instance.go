package npc

import (
	"math"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/dice"
)

// Instance is a spawned enemy. Its Character is owned exclusively by the
// instance; Attacks and Loot are read-only template data.
type Instance struct {
	*character.Character

	// ID uniquely identifies this runtime instance.
	ID string
	// TemplateName is the source template's name.
	TemplateName string
	// CR is the challenge rating, which drives the XP reward.
	CR      float64
	Attacks []Attack
	Loot    *LootTable
}

// NewInstance materializes an enemy from tmpl. Hit points are rolled from the
// template range and the rolled value becomes both current and maximum HP.
//
// Precondition: id must be non-empty; tmpl must be non-nil and valid.
// Postcondition: CurrentHP == MaxHP and MaxHP lies in [tmpl.MaxHP.Min, tmpl.MaxHP.Max].
func NewInstance(id string, tmpl *Template, src dice.Source) *Instance {
	hp := tmpl.MaxHP.Roll(src)
	return &Instance{
		Character: &character.Character{
			Name:        tmpl.Name,
			Description: tmpl.Description,
			Level:       tmpl.Level,
			MaxHP:       hp,
			CurrentHP:   hp,
			Stats:       tmpl.Stats,
			Inventory:   []string{},
			Skills:      []string{},
		},
		ID:           id,
		TemplateName: tmpl.Name,
		CR:           tmpl.CR,
		Attacks:      tmpl.Attacks,
		Loot:         tmpl.Loot,
	}
}

// XPReward returns the experience granted for defeating this enemy: CR * 10, rounded.
func (i *Instance) XPReward() int {
	return int(math.Round(i.CR * 10))
}
