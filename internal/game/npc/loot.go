package npc

import (
	"fmt"

	"github.com/cory-johannsen/adventure/internal/game/dice"
)

// GoldDrop defines the range of gold an enemy can drop on death.
type GoldDrop struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ItemDrop defines a single item entry in a loot table with a drop chance.
type ItemDrop struct {
	Item   string  `yaml:"item"`
	Chance float64 `yaml:"chance"`
	MinQty int     `yaml:"min_qty"`
	MaxQty int     `yaml:"max_qty"`
}

// LootTable defines the possible loot drops for an enemy template.
type LootTable struct {
	Gold  *GoldDrop  `yaml:"gold"`
	Items []ItemDrop `yaml:"items"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Precondition: lt must not be nil.
// Postcondition: Returns nil iff all gold and item constraints hold;
// an empty loot table is valid.
func (lt *LootTable) Validate() error {
	if lt.Gold != nil {
		if lt.Gold.Min < 0 {
			return fmt.Errorf("loot table: gold min must be >= 0, got %d", lt.Gold.Min)
		}
		if lt.Gold.Min > lt.Gold.Max {
			return fmt.Errorf("loot table: gold min (%d) must be <= max (%d)", lt.Gold.Min, lt.Gold.Max)
		}
	}
	for i, item := range lt.Items {
		if item.Item == "" {
			return fmt.Errorf("loot table: item[%d] must name an item", i)
		}
		if item.Chance <= 0 || item.Chance > 1.0 {
			return fmt.Errorf("loot table: item[%d] chance must be in (0, 1.0], got %f", i, item.Chance)
		}
		if item.MinQty < 1 {
			return fmt.Errorf("loot table: item[%d] min_qty must be >= 1, got %d", i, item.MinQty)
		}
		if item.MinQty > item.MaxQty {
			return fmt.Errorf("loot table: item[%d] min_qty (%d) must be <= max_qty (%d)", i, item.MinQty, item.MaxQty)
		}
	}
	return nil
}

// LootResult holds the generated loot from a single defeated enemy.
// Items repeats a name once per dropped copy, matching inventory semantics.
type LootResult struct {
	Gold  int
	Items []string
}

// chanceScale is the resolution of drop-chance rolls.
const chanceScale = 10000

// GenerateLoot rolls loot from lt using src.
//
// Precondition: lt must have passed Validate().
// Postcondition: Gold is in [Gold.Min, Gold.Max] if gold is set;
// each dropped item appears between MinQty and MaxQty times.
func GenerateLoot(lt LootTable, src dice.Source) LootResult {
	var result LootResult

	if lt.Gold != nil && lt.Gold.Max > 0 {
		result.Gold = lt.Gold.Min
		if spread := lt.Gold.Max - lt.Gold.Min; spread > 0 {
			result.Gold += src.Intn(spread + 1)
		}
	}

	for _, item := range lt.Items {
		if float64(src.Intn(chanceScale)) < item.Chance*chanceScale {
			qty := item.MinQty
			if spread := item.MaxQty - item.MinQty; spread > 0 {
				qty += src.Intn(spread + 1)
			}
			for i := 0; i < qty; i++ {
				result.Items = append(result.Items, item.Item)
			}
		}
	}

	return result
}
