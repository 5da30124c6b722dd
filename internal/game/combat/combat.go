// Package combat implements the turn-based combat engine: effect resolution,
// hit checks, action execution, enemy behavior and the per-encounter session
// state machine.
//
// The engine performs no I/O. Randomness is injected through Dice so that
// every outcome is reproducible under a seeded source.
package combat

import (
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/skill"
)

// Dice is the randomness the engine consumes. *dice.Roller satisfies it.
type Dice interface {
	Intn(n int) int
	D20() int
	Evaluate(expr string) dice.RollResult
}

// SkillCatalog resolves skill names case-insensitively, returning nil on a miss.
type SkillCatalog interface {
	ByName(name string) *skill.Def
}

// ItemCatalog resolves item names case-insensitively, returning nil on a miss.
type ItemCatalog interface {
	ByName(name string) *inventory.ItemDef
}

// FleeDC is the d20 + DEX modifier total required to escape combat.
const FleeDC = 15

// BaseDefense is added to the defender's DEX modifier to form the physical hit threshold.
const BaseDefense = 10

// Message keys attached to log entries for the narration layer.
const (
	MsgAttackHit        = "attack_hit"
	MsgAttackMiss       = "attack_miss"
	MsgNoWeapon         = "no_weapon"
	MsgWeaponNotFound   = "weapon_not_found"
	MsgSkillHit         = "skill_hit"
	MsgSkillMiss        = "skill_miss"
	MsgInsufficientMana = "insufficient_mana"
	MsgSkillNotFound    = "skill_not_found"
	MsgSkillNotKnown    = "skill_not_known"
	MsgSkillLevelTooLow = "skill_level_too_low"
	MsgNoSkills         = "no_skills"
	MsgItemEquipped     = "item_equipped"
	MsgItemHealed       = "item_healed"
	MsgItemUsed         = "item_used"
	MsgItemNotFound     = "item_not_found"
	MsgItemUnknown      = "item_unknown"
	MsgNoItems          = "no_items"
	MsgRunSuccess       = "run_success"
	MsgRunFail          = "run_fail"
	MsgHesitate         = "hesitate"
	MsgEnemyDefeated    = "enemy_defeated"
	MsgEnemyHit         = "enemy_attack_hit"
	MsgEnemyMiss        = "enemy_attack_miss"
	MsgEnemyHesitate    = "enemy_hesitate"
	MsgPlayerDefeated   = "player_defeated"
	MsgVictory          = "victory"
	MsgLevelUp          = "level_up"
	MsgMalformedDice    = "malformed_dice"
)
