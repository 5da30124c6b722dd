package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/effect"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/npc"
)

// Policy chooses which declared attack an enemy uses this round.
type Policy interface {
	// Choose returns an index into enemy.Attacks, or -1 when the enemy has none.
	Choose(enemy *npc.Instance, player *character.Character) int
}

// UniformPolicy picks uniformly among the enemy's attacks.
type UniformPolicy struct {
	Src dice.Source
}

// Choose implements Policy.
func (p UniformPolicy) Choose(enemy *npc.Instance, _ *character.Character) int {
	if len(enemy.Attacks) == 0 {
		return -1
	}
	return p.Src.Intn(len(enemy.Attacks))
}

// AttackChooser is an external decision hook, such as a scripted behavior.
// ok is false when the hook has no opinion.
type AttackChooser interface {
	ChooseAttack(enemy *npc.Instance, player *character.Character) (index int, ok bool)
}

// ScriptedPolicy consults Chooser first and defers to Fallback when the hook
// declines or returns an out-of-range index.
type ScriptedPolicy struct {
	Chooser  AttackChooser
	Fallback Policy
	Logger   *zap.Logger
}

// Choose implements Policy.
func (p ScriptedPolicy) Choose(enemy *npc.Instance, player *character.Character) int {
	if idx, ok := p.Chooser.ChooseAttack(enemy, player); ok {
		if idx >= 0 && idx < len(enemy.Attacks) {
			return idx
		}
		p.Logger.Warn("scripted attack choice out of range",
			zap.String("enemy", enemy.Name),
			zap.Int("index", idx),
		)
	}
	return p.Fallback.Choose(enemy, player)
}

// EnemyOutcome is the structured result of one enemy action.
type EnemyOutcome struct {
	Attack    string
	Hesitated bool
	Hit       bool
	Check     HitResult
	Damage    int
	StatBonus int
	Roll      EffectRoll
	PlayerHP  int
}

// ExecuteEnemyAction applies attack index of enemy to player.
//
// The attack rolls a physical hit check using its subType. On a hit, damage is
// the sum of the attack's damage effects plus the DEX modifier for ranged
// attacks or the STR modifier otherwise, floored at 0.
//
// Precondition: enemy, player and d must be non-nil.
// Postcondition: an out-of-range index hesitates with no mutation;
// 0 <= player.CurrentHP <= player.MaxHP.
func ExecuteEnemyAction(enemy *npc.Instance, player *character.Character, index int, d Dice) EnemyOutcome {
	if index < 0 || index >= len(enemy.Attacks) {
		return EnemyOutcome{Hesitated: true, PlayerHP: player.CurrentHP}
	}
	atk := enemy.Attacks[index]
	out := EnemyOutcome{Attack: atk.Name, PlayerHP: player.CurrentHP}
	out.Check = HitCheck(enemy.Character, player, nil, atk.SubType, false, d)
	if !out.Check.Hit {
		return out
	}
	out.Hit = true

	stat := character.STR
	if atk.SubType == inventory.SubTypeRanged {
		stat = character.DEX
	}
	out.StatBonus = enemy.Stats.Mod(stat)
	out.Roll = sumKind(atk.Effects, effect.KindDamage, d)
	out.Damage = max(0, out.Roll.Total+out.StatBonus)
	out.PlayerHP = player.ApplyDamage(out.Damage)
	return out
}
