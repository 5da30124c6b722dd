package combat

import (
	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/skill"
)

// HitResult records how a hit check was decided.
type HitResult struct {
	Hit bool
	// Automatic is set for spells, which never roll against defense.
	Automatic bool
	// ResourceFree is set when a spell was cast through a charged implement.
	ResourceFree bool
	// InsufficientMana is set when a spell failed for lack of mana.
	InsufficientMana bool
	// ManaSpent is the mana deducted by this check.
	ManaSpent int
	// Roll, Modifier and Total describe the physical attack roll.
	Roll      int
	Modifier  int
	Total     int
	Threshold int
}

// HitCheck decides whether an action connects.
//
// Spells (magic, buff, debuff) always hit when the attacker can pay their
// summed mana cost; the cost is deducted only on success. When resourceFree is
// set the mana check and deduction are skipped entirely.
//
// Physical actions roll d20 + modifier(DEX if subType is ranged, STR otherwise)
// against BaseDefense + modifier(defender DEX); the action hits iff the total
// meets the threshold.
//
// Precondition: attacker, defender and d must be non-nil; sk may be nil.
// Postcondition: only attacker mana may change, and only on a successful paid spell.
func HitCheck(attacker, defender *character.Character, sk *skill.Def, subType inventory.SubType, resourceFree bool, d Dice) HitResult {
	if sk != nil && sk.IsSpell() {
		res := HitResult{Automatic: true}
		if resourceFree {
			res.Hit = true
			res.ResourceFree = true
			return res
		}
		cost := sk.ManaCost()
		if !attacker.SpendMana(cost) {
			res.InsufficientMana = true
			return res
		}
		res.Hit = true
		res.ManaSpent = cost
		return res
	}

	stat := character.STR
	if subType == inventory.SubTypeRanged {
		stat = character.DEX
	}
	roll := d.D20()
	mod := attacker.Stats.Mod(stat)
	threshold := BaseDefense + defender.Stats.Mod(character.DEX)
	return HitResult{
		Hit:       roll+mod >= threshold,
		Roll:      roll,
		Modifier:  mod,
		Total:     roll + mod,
		Threshold: threshold,
	}
}
