package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/effect"
	"github.com/cory-johannsen/adventure/internal/game/npc"
)

func newSession(t *testing.T, h *character.Character, d combat.Deps, enemies ...*npc.Instance) *combat.Session {
	t.Helper()
	s, err := combat.NewSession("test", h, enemies, d)
	require.NoError(t, err)
	return s
}

func keys(log []combat.LogEntry) []string {
	out := make([]string, 0, len(log))
	for _, e := range log {
		out = append(out, e.MessageKey)
	}
	return out
}

func TestNewSession_Rejects(t *testing.T) {
	_, err := combat.NewSession("x", hero(), nil, deps(t, 0))
	assert.ErrorIs(t, err, combat.ErrNoEnemies)

	down := hero()
	down.CurrentHP = 0
	_, err = combat.NewSession("x", down, []*npc.Instance{enemy("Rat", 3)}, deps(t, 0))
	assert.ErrorIs(t, err, combat.ErrPlayerDown)
}

func TestSession_Victory(t *testing.T) {
	h := hero()
	rat := enemy("Rat", 5, claw)
	rat.Loot = &npc.LootTable{
		Gold:  &npc.GoldDrop{Min: 3, Max: 7},
		Items: []npc.ItemDrop{{Item: "Fang", Chance: 1, MinQty: 1, MaxQty: 1}},
	}
	s := newSession(t, h, deps(t, 19), rat)

	res, err := s.Submit(combat.Intent{Kind: combat.IntentAttack})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Round)
	assert.Equal(t, combat.StateVictory, res.State)
	assert.Equal(t, []string{combat.MsgAttackHit, combat.MsgEnemyDefeated, combat.MsgVictory}, keys(res.Log))
	assert.Equal(t, 6, res.Log[0].Damage)
	assert.Equal(t, []int{6}, res.Log[0].Rolls)

	require.NotNil(t, res.Reward)
	assert.Equal(t, 10, res.Reward.XP)
	assert.Equal(t, 7, res.Reward.Gold)
	assert.Equal(t, []string{"Fang"}, res.Reward.Items)
	assert.Equal(t, 10, h.Experience)
	assert.Equal(t, 7, h.Gold)
	assert.Equal(t, 1, h.CountItem("Fang"))
	assert.Zero(t, res.Reward.LevelsGained)

	assert.False(t, res.Snapshot.InCombat)
	assert.Empty(t, res.Snapshot.Enemies)

	_, err = s.Submit(combat.Intent{Kind: combat.IntentAttack})
	assert.ErrorIs(t, err, combat.ErrSessionOver)
}

func TestSession_VictoryLevelsUp(t *testing.T) {
	h := hero()
	h.Experience = 195
	h.CurrentHP = 12
	s := newSession(t, h, deps(t, 19), enemy("Rat", 5, claw))

	res, err := s.Submit(combat.Intent{Kind: combat.IntentAttack})
	require.NoError(t, err)
	require.Equal(t, combat.StateVictory, res.State)
	assert.Contains(t, keys(res.Log), combat.MsgLevelUp)
	assert.Equal(t, 1, res.Reward.LevelsGained)
	assert.Equal(t, 2, res.Reward.Level)
	assert.Equal(t, 2, h.Level)
	assert.Equal(t, 40, h.MaxHP)
	assert.Equal(t, 40, h.CurrentHP)
	assert.Equal(t, 30, h.Mana.Max)
}

func TestSession_VictoryAcrossEncounterLevelsUpAtThreshold(t *testing.T) {
	tests := []struct {
		name      string
		xp        int
		wantLevel int
		wantMaxHP int
		wantGain  int
	}{
		{name: "reaches threshold", xp: 370, wantLevel: 4, wantMaxHP: 40, wantGain: 1},
		{name: "one short", xp: 369, wantLevel: 3, wantMaxHP: 30, wantGain: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := hero()
			h.Level = 3
			h.Experience = tc.xp
			ogre := enemy("Ogre", 5, claw)
			ogre.CR = 2
			s := newSession(t, h, deps(t, 19), ogre, enemy("Rat", 5, claw))

			var res combat.RoundResult
			var seen []string
			for i := 0; i < 5 && !s.State().Terminal(); i++ {
				var err error
				res, err = s.Submit(combat.Intent{Kind: combat.IntentAttack})
				require.NoError(t, err)
				seen = append(seen, keys(res.Log)...)
			}
			require.Equal(t, combat.StateVictory, res.State)
			require.NotNil(t, res.Reward)
			assert.Equal(t, 30, res.Reward.XP)
			assert.Equal(t, tc.xp+30, h.Experience)
			assert.Equal(t, tc.wantGain, res.Reward.LevelsGained)
			assert.Equal(t, tc.wantLevel, res.Reward.Level)
			assert.Equal(t, tc.wantLevel, h.Level)
			assert.Equal(t, tc.wantMaxHP, h.MaxHP)
			if tc.wantGain > 0 {
				assert.Contains(t, seen, combat.MsgLevelUp)
				assert.Equal(t, h.MaxHP, h.CurrentHP)
			} else {
				assert.NotContains(t, seen, combat.MsgLevelUp)
			}
		})
	}
}

func TestSession_MalformedEnemyDiceLogsExplicitZero(t *testing.T) {
	h := hero()
	broken := npc.Attack{Name: "Glitch", Effects: []effect.Effect{dmg("2000000000d6")}}
	s := newSession(t, h, deps(t, 19), enemy("Wolf", 40, broken))

	res, err := s.Submit(combat.Intent{Kind: combat.IntentAttack})
	require.NoError(t, err)
	assert.Equal(t, []string{combat.MsgAttackHit, combat.MsgEnemyHit, combat.MsgMalformedDice}, keys(res.Log))

	fizzle := res.Log[2]
	assert.Equal(t, "Wolf", fizzle.Actor)
	assert.Equal(t, "Glitch", fizzle.Detail)
	assert.True(t, fizzle.Malformed)
	assert.Zero(t, fizzle.Damage)
	assert.Zero(t, res.Log[1].Damage)
	assert.Equal(t, 30, h.CurrentHP)
}

func TestSession_Defeat(t *testing.T) {
	h := hero()
	h.CurrentHP = 3
	h.EquippedWeapon = ""
	s := newSession(t, h, deps(t, 19), enemy("Wolf", 20, claw))

	res, err := s.Submit(combat.Intent{Kind: combat.IntentAttack})
	require.NoError(t, err)
	assert.Equal(t, combat.StateDefeat, res.State)
	assert.Equal(t, []string{combat.MsgNoWeapon, combat.MsgEnemyHit, combat.MsgPlayerDefeated}, keys(res.Log))
	assert.Zero(t, h.CurrentHP)
	assert.Nil(t, res.Reward)

	_, err = s.Submit(combat.Intent{Kind: combat.IntentRun})
	assert.ErrorIs(t, err, combat.ErrSessionOver)
}

func TestSession_EscapeSkipsEnemies(t *testing.T) {
	h := hero()
	s := newSession(t, h, deps(t, 19), enemy("Wolf", 20, claw))

	res, err := s.Submit(combat.Intent{Kind: combat.IntentRun})
	require.NoError(t, err)
	assert.Equal(t, combat.StateEscaped, res.State)
	assert.Equal(t, []string{combat.MsgRunSuccess}, keys(res.Log))
	assert.Equal(t, 21, res.Log[0].AttackRoll)
	assert.Equal(t, 30, h.CurrentHP)
	assert.Equal(t, combat.StateEscaped, s.State())
}

func TestSession_FailedRunLetsEnemiesAct(t *testing.T) {
	h := hero()
	s := newSession(t, h, deps(t, 0), enemy("Wolf", 20, claw))

	res, err := s.Submit(combat.Intent{Kind: combat.IntentRun})
	require.NoError(t, err)
	assert.Equal(t, combat.StateAwaitingInput, res.State)
	assert.Equal(t, []string{combat.MsgRunFail, combat.MsgEnemyMiss}, keys(res.Log))
	assert.True(t, res.Snapshot.InCombat)
}

func TestSession_InvalidTargetConsumesNothing(t *testing.T) {
	h := hero()
	rat, wolf := enemy("Rat", 5, claw), enemy("Wolf", 20, claw)
	s := newSession(t, h, deps(t, 19), rat, wolf)

	for _, idx := range []int{2, -1, 99} {
		_, err := s.Submit(combat.Intent{Kind: combat.IntentAttack, TargetIndex: combat.Target(idx)})
		assert.ErrorIs(t, err, combat.ErrInvalidTarget)
	}
	_, err := s.Submit(combat.Intent{Kind: combat.IntentSwitchTarget})
	assert.ErrorIs(t, err, combat.ErrInvalidTarget)

	snap := s.Snapshot()
	assert.Zero(t, snap.Round)
	assert.Equal(t, 5, rat.CurrentHP)
	assert.Equal(t, 20, wolf.CurrentHP)
	assert.Equal(t, 30, h.CurrentHP)
	assert.Empty(t, s.History())
}

func TestSession_SwitchTargetIsFree(t *testing.T) {
	h := hero()
	rat, wolf := enemy("Rat", 5, claw), enemy("Wolf", 20, claw)
	s := newSession(t, h, deps(t, 19), rat, wolf)

	res, err := s.Submit(combat.Intent{Kind: combat.IntentSwitchTarget, TargetIndex: combat.Target(1)})
	require.NoError(t, err)
	assert.Zero(t, res.Round)
	assert.Empty(t, res.Log)
	assert.Equal(t, 1, res.Snapshot.Target)
	assert.Equal(t, 1, h.Target)

	res, err = s.Submit(combat.Intent{Kind: combat.IntentAttack})
	require.NoError(t, err)
	assert.Equal(t, "Wolf", res.Log[0].Target)
	assert.Equal(t, 14, wolf.CurrentHP)
	assert.Equal(t, 5, rat.CurrentHP)
}

func TestSession_DefeatedEnemyNeverActs(t *testing.T) {
	h := hero()
	rat, ogre := enemy("Rat", 1, claw), enemy("Ogre", 100, claw)
	s := newSession(t, h, deps(t, 19), rat, ogre)

	res, err := s.Submit(combat.Intent{Kind: combat.IntentAttack})
	require.NoError(t, err)
	assert.Equal(t, combat.StateAwaitingInput, res.State)

	var actors []string
	for _, e := range res.Log {
		if e.MessageKey == combat.MsgEnemyHit || e.MessageKey == combat.MsgEnemyMiss {
			actors = append(actors, e.Actor)
		}
	}
	assert.Equal(t, []string{"Ogre"}, actors)
	require.Len(t, res.Snapshot.Enemies, 1)
	assert.Equal(t, "ogre-1", res.Snapshot.Enemies[0].ID)
	assert.Zero(t, res.Snapshot.Target)
	assert.Equal(t, 24, h.CurrentHP)
}

func TestSession_UnknownIntentHesitates(t *testing.T) {
	s := newSession(t, hero(), deps(t, 0), enemy("Wolf", 20, claw))
	res, err := s.Submit(combat.Intent{Kind: "dance"})
	require.NoError(t, err)
	assert.Equal(t, []string{combat.MsgHesitate, combat.MsgEnemyMiss}, keys(res.Log))
}

func TestSession_SkillRejections(t *testing.T) {
	cases := []struct {
		name  string
		skill string
		setup func(*character.Character)
		want  string
	}{
		{name: "unknown to catalog", skill: "Dance", want: combat.MsgSkillNotFound},
		{name: "not learned", skill: "Meteor", want: combat.MsgSkillNotKnown},
		{name: "level too low", skill: "meteor", setup: func(h *character.Character) { h.Skills = append(h.Skills, "Meteor") }, want: combat.MsgSkillLevelTooLow},
		{name: "no mana", skill: "Firebolt", setup: func(h *character.Character) { h.Mana.Current = 0 }, want: combat.MsgInsufficientMana},
		{name: "no skills", setup: func(h *character.Character) { h.Skills = nil }, want: combat.MsgNoSkills},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := hero()
			if tc.setup != nil {
				tc.setup(h)
			}
			mana := h.Mana.Current
			wolf := enemy("Wolf", 20, claw)
			s := newSession(t, h, deps(t, 0), wolf)

			res, err := s.Submit(combat.Intent{Kind: combat.IntentUseSkill, Skill: tc.skill})
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Log[0].MessageKey)
			assert.False(t, res.Log[0].Hit)
			assert.Equal(t, mana, h.Mana.Current)
			assert.Equal(t, 20, wolf.CurrentHP)
		})
	}
}

func TestSession_SkillDefaultsToFirstKnown(t *testing.T) {
	wolf := enemy("Wolf", 40, claw)
	s := newSession(t, hero(), deps(t, 19), wolf)
	res, err := s.Submit(combat.Intent{Kind: combat.IntentUseSkill})
	require.NoError(t, err)
	assert.Equal(t, "Power Strike", res.Log[0].Detail)
	assert.Equal(t, combat.MsgSkillHit, res.Log[0].MessageKey)
	// 1d8+2 rolls 10, +2 STR, plus Short Sword rolling 6.
	assert.Equal(t, 18, res.Log[0].Damage)
}

func TestSession_WandCastsWithoutMana(t *testing.T) {
	h := hero()
	h.EquippedWeapon = "Wand of Sparks"
	h.Mana.Current = 0
	ogre := enemy("Ogre", 100, claw)
	s := newSession(t, h, deps(t, 2), ogre)

	for charges := 1; charges >= 0; charges-- {
		res, err := s.Submit(combat.Intent{Kind: combat.IntentUseSkill, Skill: "Firebolt"})
		require.NoError(t, err)
		assert.Equal(t, combat.MsgSkillHit, res.Log[0].MessageKey)
		assert.Zero(t, res.Log[0].ManaSpent)
		assert.Equal(t, charges, h.RemainingUses("Wand of Sparks", 2))
	}
	assert.Equal(t, 84, ogre.CurrentHP)

	res, err := s.Submit(combat.Intent{Kind: combat.IntentUseSkill, Skill: "Firebolt"})
	require.NoError(t, err)
	assert.Equal(t, combat.MsgInsufficientMana, res.Log[0].MessageKey)
	assert.Zero(t, h.Mana.Current)
}

func TestSession_UseItem(t *testing.T) {
	h := hero()
	h.CurrentHP = 10
	s := newSession(t, h, deps(t, 0), enemy("Wolf", 20, claw))

	res, err := s.Submit(combat.Intent{Kind: combat.IntentUseItem, Item: "healing potion"})
	require.NoError(t, err)
	assert.Equal(t, combat.MsgItemHealed, res.Log[0].MessageKey)
	assert.Equal(t, 4, res.Log[0].Healed)
	assert.Equal(t, 14, h.CurrentHP)

	res, err = s.Submit(combat.Intent{Kind: combat.IntentUseItem, Item: "Healing Potion"})
	require.NoError(t, err)
	assert.Equal(t, combat.MsgItemNotFound, res.Log[0].MessageKey)

	res, err = s.Submit(combat.Intent{Kind: combat.IntentUseItem, Item: "Mystery Rock"})
	require.NoError(t, err)
	assert.Equal(t, combat.MsgItemUnknown, res.Log[0].MessageKey)

	res, err = s.Submit(combat.Intent{Kind: combat.IntentUseItem})
	require.NoError(t, err)
	assert.Equal(t, combat.MsgItemEquipped, res.Log[0].MessageKey)
	assert.Equal(t, "Short Sword", h.EquippedWeapon)
	assert.Equal(t, 4, s.Snapshot().Round)
}

func TestSession_LogsEveryRound(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := deps(t, 0)
	d.Logger = zap.New(core)
	s := newSession(t, hero(), d, enemy("Wolf", 20, claw))

	_, err := s.Submit(combat.Intent{Kind: combat.IntentRun})
	require.NoError(t, err)
	entries := logs.FilterMessage("combat round resolved").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "awaiting_input", entries[0].ContextMap()["state"])
	assert.Equal(t, "test", entries[0].ContextMap()["session"])
}

func TestProperty_SessionInvariants(t *testing.T) {
	skills := skillCatalog(t)
	items := itemCatalog(t)
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		d := combat.Deps{Skills: skills, Items: items, Dice: dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())}
		h := hero()
		n := rapid.IntRange(1, 3).Draw(rt, "enemies")
		var roster []*npc.Instance
		for i := 0; i < n; i++ {
			roster = append(roster, enemy("Goblin", rapid.IntRange(1, 25).Draw(rt, "hp"), claw))
		}
		s, err := combat.NewSession("prop", h, roster, d)
		if err != nil {
			rt.Fatalf("new session: %v", err)
		}

		kinds := []combat.IntentKind{combat.IntentAttack, combat.IntentUseSkill, combat.IntentUseItem, combat.IntentRun}
		for round := 1; round <= 60 && !s.State().Terminal(); round++ {
			kind := rapid.SampledFrom(kinds).Draw(rt, "kind")

			res, err := s.Submit(combat.Intent{Kind: kind})
			if err != nil {
				rt.Fatalf("round %d: %v", round, err)
			}
			if res.Round != round {
				rt.Fatalf("round counter %d, want %d", res.Round, round)
			}
			if h.CurrentHP < 0 || h.CurrentHP > h.MaxHP {
				rt.Fatalf("player HP %d out of [0, %d]", h.CurrentHP, h.MaxHP)
			}
			for _, e := range roster {
				if e.CurrentHP < 0 || e.CurrentHP > e.MaxHP {
					rt.Fatalf("enemy HP %d out of [0, %d]", e.CurrentHP, e.MaxHP)
				}
			}
			alive := len(res.Snapshot.Enemies)
			if alive == 0 && res.State != combat.StateVictory {
				rt.Fatalf("all enemies dead but state %s", res.State)
			}
			if alive > 0 && (res.Snapshot.Target < 0 || res.Snapshot.Target >= alive) {
				rt.Fatalf("target %d out of [0, %d)", res.Snapshot.Target, alive)
			}
		}
		if s.State().Terminal() {
			if _, err := s.Submit(combat.Intent{Kind: combat.IntentAttack}); err == nil {
				rt.Fatalf("submit after %s succeeded", s.State())
			}
		}
	})
}
