// Package narration turns engine outcomes into prose and story turns into
// structured deltas. It sits outside the engine: nothing under internal/game
// imports it.
package narration

import (
	"context"
	"fmt"
	"strings"

	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
)

// Narrator renders one resolved combat round for the player.
type Narrator interface {
	NarrateRound(ctx context.Context, res combat.RoundResult) (string, error)
}

// Plain renders rounds deterministically from message keys. It never fails.
type Plain struct{}

// NarrateRound implements Narrator.
func (Plain) NarrateRound(_ context.Context, res combat.RoundResult) (string, error) {
	return RenderRound(res), nil
}

// RenderRound formats every log entry of res on its own line, followed by the
// reward on victory.
func RenderRound(res combat.RoundResult) string {
	lines := make([]string, 0, len(res.Log)+1)
	for _, e := range res.Log {
		if line := RenderEntry(e); line != "" {
			lines = append(lines, line)
		}
	}
	if r := res.Reward; r != nil {
		lines = append(lines, renderReward(r))
	}
	return strings.Join(lines, "\n")
}

// RenderEntry formats one log entry. Unknown message keys render as the raw
// actor/action pair so that nothing is silently dropped.
func RenderEntry(e combat.LogEntry) string {
	switch e.MessageKey {
	case combat.MsgAttackHit, combat.MsgEnemyHit:
		return fmt.Sprintf("%s strikes %s for %d damage.", e.Actor, e.Target, e.Damage)
	case combat.MsgAttackMiss, combat.MsgEnemyMiss:
		return fmt.Sprintf("%s swings at %s and misses.", e.Actor, e.Target)
	case combat.MsgNoWeapon:
		return fmt.Sprintf("%s has no weapon drawn.", e.Actor)
	case combat.MsgWeaponNotFound:
		return fmt.Sprintf("%s reaches for %s, but it is nowhere to be found.", e.Actor, e.Detail)
	case combat.MsgSkillHit:
		return renderSkill(e)
	case combat.MsgSkillMiss:
		return fmt.Sprintf("%s uses %s, but %s avoids it.", e.Actor, e.Detail, e.Target)
	case combat.MsgInsufficientMana:
		return fmt.Sprintf("%s lacks the mana for %s.", e.Actor, e.Detail)
	case combat.MsgSkillNotFound:
		return fmt.Sprintf("%s tries %q, which is not a known technique.", e.Actor, e.Detail)
	case combat.MsgSkillNotKnown:
		return fmt.Sprintf("%s has never learned %s.", e.Actor, e.Detail)
	case combat.MsgSkillLevelTooLow:
		return fmt.Sprintf("%s is not experienced enough for %s.", e.Actor, e.Detail)
	case combat.MsgNoSkills:
		return fmt.Sprintf("%s knows no skills.", e.Actor)
	case combat.MsgItemEquipped:
		return fmt.Sprintf("%s equips %s.", e.Actor, e.Detail)
	case combat.MsgItemHealed:
		return fmt.Sprintf("%s uses %s and recovers %d HP.", e.Actor, e.Detail, e.Healed)
	case combat.MsgItemUsed:
		return fmt.Sprintf("%s uses %s.", e.Actor, e.Detail)
	case combat.MsgItemNotFound:
		return fmt.Sprintf("%s searches for %s but is not carrying it.", e.Actor, e.Detail)
	case combat.MsgItemUnknown:
		return fmt.Sprintf("%s fumbles with %s to no effect.", e.Actor, e.Detail)
	case combat.MsgNoItems:
		return fmt.Sprintf("%s has nothing to use.", e.Actor)
	case combat.MsgRunSuccess:
		return fmt.Sprintf("%s escapes!", e.Actor)
	case combat.MsgRunFail:
		return fmt.Sprintf("%s tries to flee but is cut off.", e.Actor)
	case combat.MsgHesitate:
		return fmt.Sprintf("%s hesitates.", e.Actor)
	case combat.MsgEnemyHesitate:
		return fmt.Sprintf("%s circles warily.", e.Actor)
	case combat.MsgEnemyDefeated:
		return fmt.Sprintf("%s falls.", e.Actor)
	case combat.MsgPlayerDefeated:
		return fmt.Sprintf("%s has been defeated.", e.Actor)
	case combat.MsgVictory:
		return "Victory!"
	case combat.MsgLevelUp:
		return fmt.Sprintf("%s reaches %s!", e.Actor, e.Detail)
	case combat.MsgMalformedDice:
		return fmt.Sprintf("%s's %s fizzles.", e.Actor, e.Detail)
	}
	return strings.TrimSpace(e.Actor + " " + e.Action)
}

func renderSkill(e combat.LogEntry) string {
	switch {
	case e.Damage > 0:
		return fmt.Sprintf("%s uses %s on %s for %d damage.", e.Actor, e.Detail, e.Target, e.Damage)
	case e.Magnitude > 0:
		return fmt.Sprintf("%s uses %s (%d for %d turns).", e.Actor, e.Detail, e.Magnitude, e.Duration)
	}
	return fmt.Sprintf("%s uses %s.", e.Actor, e.Detail)
}

func renderReward(r *combat.Reward) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You gain %d XP and %s.", r.XP, inventory.FormatGold(r.Gold))
	if len(r.Items) > 0 {
		fmt.Fprintf(&b, " Loot: %s.", strings.Join(r.Items, ", "))
	}
	return b.String()
}
