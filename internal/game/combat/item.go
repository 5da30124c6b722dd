package combat

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
)

// Item usage errors. Neither mutates the actor.
var (
	ErrItemNotInInventory = errors.New("combat: item not in inventory")
	ErrItemUnknown        = errors.New("combat: item not in catalog")
)

// ItemResult is the structured outcome of UseItem.
type ItemResult struct {
	Item     string
	Equipped bool
	Healed   int
	Rolls    []dice.RollResult
	// Consumed is set when a copy of the item left the inventory.
	Consumed bool
	// RemainingUses is the count left on a finite-use item still carried.
	RemainingUses int
	Malformed     bool
}

// UseItem applies the named inventory item to actor.
//
// Weapons and magical items are equipped. Otherwise every heal effect is
// rolled and added to HP (clamped to MaxHP); a finite-use item then loses one
// use and leaves the inventory at zero, and any other item is removed after a
// single use.
//
// Precondition: actor, items and d must be non-nil.
// Postcondition: returns ErrItemNotInInventory or ErrItemUnknown with no mutation
// when the item cannot be resolved.
func UseItem(actor *character.Character, name string, items ItemCatalog, d Dice) (ItemResult, error) {
	stored, ok := actor.HasItem(name)
	if !ok {
		return ItemResult{}, fmt.Errorf("%w: %q", ErrItemNotInInventory, name)
	}
	def := items.ByName(stored)
	if def == nil {
		return ItemResult{}, fmt.Errorf("%w: %q", ErrItemUnknown, stored)
	}

	res := ItemResult{Item: def.Name}
	if def.IsEquippable() {
		actor.EquippedWeapon = def.Name
		res.Equipped = true
		return res, nil
	}

	heal := ResolveHeal(def.Effects, d)
	res.Rolls = heal.Rolls
	res.Malformed = heal.Malformed
	res.Healed = actor.Heal(heal.Total)

	if initial, finite := def.FiniteUses(); finite {
		left := actor.RemainingUses(def.Name, initial) - 1
		if left > 0 {
			actor.SetRemainingUses(def.Name, left)
			res.RemainingUses = left
			return res, nil
		}
		actor.ClearUses(def.Name)
	}
	actor.RemoveItem(stored)
	res.Consumed = true
	return res, nil
}

// WandCharges returns the charges left on wand for actor; 0 for non-wands.
func WandCharges(actor *character.Character, wand *inventory.ItemDef) int {
	if wand == nil || !wand.IsWand() || wand.Usages == nil {
		return 0
	}
	return actor.RemainingUses(wand.Name, *wand.Usages)
}

// SpendWandCharge decrements the wand's remaining charges by one, floored at 0.
//
// Postcondition: returns the charges left.
func SpendWandCharge(actor *character.Character, wand *inventory.ItemDef) int {
	left := max(0, WandCharges(actor, wand)-1)
	actor.SetRemainingUses(wand.Name, left)
	return left
}

// RechargeWands restores every carried wand to full charges.
//
// Postcondition: returns the names of wands whose charges were reset.
func RechargeWands(actor *character.Character, items ItemCatalog) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range actor.Inventory {
		def := items.ByName(name)
		if def == nil || !def.IsWand() || seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		if def.Usages != nil && WandCharges(actor, def) < *def.Usages {
			actor.ClearUses(def.Name)
			out = append(out, def.Name)
		}
	}
	return out
}
