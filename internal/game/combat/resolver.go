package combat

import (
	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/effect"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/skill"
)

// EffectRoll is the numeric outcome of resolving a set of effects.
type EffectRoll struct {
	// Total is the final value after scaling and flooring.
	Total int
	// Rolls holds every dice evaluation in declaration order.
	Rolls []dice.RollResult
	// Scaling is the ability modifier added to damage.
	Scaling int
	// Duration is the longest rolled duration among buff/debuff effects.
	Duration int
	// Malformed is set when any expression evaluated as a malformed zero.
	Malformed bool
}

// Dice returns every individual die value across all rolls.
func (e EffectRoll) Dice() []int {
	var out []int
	for _, r := range e.Rolls {
		out = append(out, r.Dice...)
	}
	return out
}

// StatScaling returns the damage bonus for a skill type: the STR modifier for
// attack skills, the INT modifier for magic, 0 otherwise.
func StatScaling(t skill.Type, stats character.AbilityScores) int {
	switch t {
	case skill.TypeAttack:
		return stats.Mod(character.STR)
	case skill.TypeMagic:
		return stats.Mod(character.INT)
	}
	return 0
}

// ResolveDamage sums every damage effect, adds StatScaling and floors the result at 0.
//
// Precondition: d must be non-nil.
// Postcondition: result.Total >= 0. No actor state is touched.
func ResolveDamage(effects []effect.Effect, t skill.Type, stats character.AbilityScores, d effect.Evaluator) EffectRoll {
	out := sumKind(effects, effect.KindDamage, d)
	out.Scaling = StatScaling(t, stats)
	out.Total = max(0, out.Total+out.Scaling)
	return out
}

// ResolveBuff sums every buff effect and rolls their durations.
func ResolveBuff(effects []effect.Effect, d effect.Evaluator) EffectRoll {
	return sumKind(effects, effect.KindBuff, d)
}

// ResolveDebuff sums every debuff effect and rolls their durations.
func ResolveDebuff(effects []effect.Effect, d effect.Evaluator) EffectRoll {
	return sumKind(effects, effect.KindDebuff, d)
}

// ResolveHeal sums every heal effect.
func ResolveHeal(effects []effect.Effect, d effect.Evaluator) EffectRoll {
	out := sumKind(effects, effect.KindHeal, d)
	out.Total = max(0, out.Total)
	return out
}

// WeaponDamage rolls the damage effects of a weapon, floored at 0. A nil weapon deals nothing.
func WeaponDamage(w *inventory.ItemDef, d effect.Evaluator) EffectRoll {
	if w == nil {
		return EffectRoll{}
	}
	out := sumKind(w.Effects, effect.KindDamage, d)
	out.Total = max(0, out.Total)
	return out
}

func sumKind(effects []effect.Effect, k effect.Kind, d effect.Evaluator) EffectRoll {
	var out EffectRoll
	for _, e := range effect.OfKind(effects, k) {
		r := e.Value.Roll(d)
		out.Rolls = append(out.Rolls, r)
		out.Total += r.Total()
		out.Malformed = out.Malformed || r.Malformed
		if e.Duration != "" {
			dur := e.Duration.Roll(d)
			out.Malformed = out.Malformed || dur.Malformed
			out.Duration = max(out.Duration, dur.Total())
		}
	}
	return out
}
