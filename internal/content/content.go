// Package content loads the skill, item and enemy catalogs the game runs on.
package content

import (
	"fmt"

	"github.com/cory-johannsen/adventure/internal/config"
	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/npc"
	"github.com/cory-johannsen/adventure/internal/game/skill"
	"github.com/cory-johannsen/adventure/internal/importer"
)

// Catalog holds every loaded definition. Read-only after Load.
type Catalog struct {
	Skills  *skill.Registry
	Items   *inventory.Registry
	Enemies []*npc.Template
}

// Load reads and validates the three catalog directories named by cfg.
//
// Precondition: every directory in cfg exists.
// Postcondition: returns a Catalog with unique skill and item names, or the first error.
func Load(cfg config.ContentConfig) (*Catalog, error) {
	skillDefs, err := skill.LoadSkills(cfg.SkillsDir)
	if err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}
	skills, err := skill.NewRegistryFrom(skillDefs)
	if err != nil {
		return nil, fmt.Errorf("registering skills: %w", err)
	}

	itemDefs, err := inventory.LoadItems(cfg.ItemsDir)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	items, err := inventory.NewRegistryFrom(itemDefs)
	if err != nil {
		return nil, fmt.Errorf("registering items: %w", err)
	}

	enemies, err := npc.LoadTemplates(cfg.EnemiesDir)
	if err != nil {
		return nil, fmt.Errorf("loading enemies: %w", err)
	}
	if len(enemies) == 0 {
		return nil, fmt.Errorf("no enemy templates in %s", cfg.EnemiesDir)
	}

	return &Catalog{Skills: skills, Items: items, Enemies: enemies}, nil
}

// Problems reports unresolved references between catalogs.
//
// Postcondition: nil when every reference resolves.
func (c *Catalog) Problems() []string {
	problems := importer.CrossCheck(c.Skills.All(), c.Items.All(), c.Enemies)
	lowest := c.Enemies[0].Level
	for _, t := range c.Enemies {
		lowest = min(lowest, t.Level)
	}
	if lowest > 1 {
		problems = append(problems, fmt.Sprintf("no level 1 enemy template; encounters fail below level %d", lowest))
	}
	return problems
}

// CheckCharacter reports the character's items, weapon and skills that the
// catalogs do not define. Unknown items are carried but do nothing in combat.
func (c *Catalog) CheckCharacter(ch *character.Character) []string {
	var problems []string
	seen := make(map[string]bool)
	for _, item := range ch.Inventory {
		if seen[item] {
			continue
		}
		seen[item] = true
		if c.Items.ByName(item) == nil {
			problems = append(problems, fmt.Sprintf("%s carries unknown item %q", ch.Name, item))
		}
	}
	if w := ch.EquippedWeapon; w != "" && c.Items.ByName(w) == nil {
		problems = append(problems, fmt.Sprintf("%s wields unknown weapon %q", ch.Name, w))
	}
	for _, sk := range ch.Skills {
		if c.Skills.ByName(sk) == nil {
			problems = append(problems, fmt.Sprintf("%s knows unknown skill %q", ch.Name, sk))
		}
	}
	return problems
}

// EnemyNames lists template names in load order.
func (c *Catalog) EnemyNames() []string {
	names := make([]string, len(c.Enemies))
	for i, t := range c.Enemies {
		names[i] = t.Name
	}
	return names
}
