package combat

import (
	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/skill"
)

// Action is one offensive action: a skill, a weapon, or both.
type Action struct {
	// Skill is the skill being used; nil for a plain weapon attack.
	Skill *skill.Def
	// Weapon is the attacker's equipped weapon; nil when unarmed.
	Weapon *inventory.ItemDef
	// ResourceFree marks a spell cast through a charged implement.
	ResourceFree bool
}

// AttackResult is the structured outcome of ExecuteAction.
type AttackResult struct {
	Hit             bool
	Check           HitResult
	Damage          int
	SkillRoll       EffectRoll
	WeaponRoll      EffectRoll
	Buff            EffectRoll
	Debuff          EffectRoll
	DefenderHPAfter int
}

// Rolls returns every dice evaluation made while resolving the action.
func (r AttackResult) Rolls() []dice.RollResult {
	var out []dice.RollResult
	for _, e := range []EffectRoll{r.SkillRoll, r.WeaponRoll, r.Buff, r.Debuff} {
		out = append(out, e.Rolls...)
	}
	return out
}

// Malformed reports whether any expression in the action evaluated as a malformed zero.
func (r AttackResult) Malformed() bool {
	return r.SkillRoll.Malformed || r.WeaponRoll.Malformed || r.Buff.Malformed || r.Debuff.Malformed
}

// ExecuteAction resolves a against defender.
//
// On a miss nothing but the hit check's mana deduction changes. On a hit the
// damage is the skill contribution (when a skill is used) plus weapon damage
// (when no skill is used or the skill is an attack), and the defender's HP is
// reduced and clamped to [0, MaxHP]. Buff and debuff skills additionally
// report their rolled magnitude and duration.
//
// Precondition: attacker, defender and d must be non-nil.
// Postcondition: 0 <= defender.CurrentHP <= defender.MaxHP.
func ExecuteAction(attacker, defender *character.Character, a Action, d Dice) AttackResult {
	var subType inventory.SubType
	if a.Weapon != nil {
		subType = a.Weapon.SubType
	}
	res := AttackResult{DefenderHPAfter: defender.CurrentHP}
	res.Check = HitCheck(attacker, defender, a.Skill, subType, a.ResourceFree, d)
	if !res.Check.Hit {
		return res
	}
	res.Hit = true

	if a.Skill != nil {
		res.SkillRoll = ResolveDamage(a.Skill.Effects, a.Skill.Type, attacker.Stats, d)
		res.Damage += res.SkillRoll.Total
		switch a.Skill.Type {
		case skill.TypeBuff:
			res.Buff = ResolveBuff(a.Skill.Effects, d)
		case skill.TypeDebuff:
			res.Debuff = ResolveDebuff(a.Skill.Effects, d)
		}
	}
	if a.Weapon != nil && (a.Skill == nil || a.Skill.Type == skill.TypeAttack) {
		res.WeaponRoll = WeaponDamage(a.Weapon, d)
		res.Damage += res.WeaponRoll.Total
	}

	res.DefenderHPAfter = defender.ApplyDamage(res.Damage)
	return res
}
