package combat_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/effect"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/npc"
	"github.com/cory-johannsen/adventure/internal/game/skill"
)

// fixedSrc always returns val, clamped into range.
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

// roller rolls every die at min(v+1, sides): v=19 is a natural 20, v=0 a natural 1.
func roller(v int) *dice.Roller {
	return dice.NewLoggedRoller(fixedSrc{val: v}, zap.NewNop())
}

func intp(n int) *int { return &n }

func scores(str, dex, intel int) character.AbilityScores {
	return character.AbilityScores{STR: str, DEX: dex, CON: 10, INT: intel, WIS: 10, CHA: 10}
}

func dmg(v string) effect.Effect { return effect.Effect{Kind: effect.KindDamage, Value: effect.Amount(v)} }

// hero has STR +2, DEX +1 and INT +2.
func hero() *character.Character {
	return &character.Character{
		Name:           "Aria",
		Level:          1,
		CurrentHP:      30,
		MaxHP:          30,
		Mana:           &character.ManaPool{Current: 20, Max: 20},
		Stats:          scores(14, 12, 14),
		EquippedWeapon: "Short Sword",
		Inventory:      []string{"Short Sword", "Longbow", "Healing Potion", "Salve", "Wand of Sparks", "Mystery Rock"},
		Skills:         []string{"Power Strike", "Firebolt", "Bless", "Hex"},
	}
}

func itemCatalog(t *testing.T) *inventory.Registry {
	t.Helper()
	reg, err := inventory.NewRegistryFrom([]*inventory.ItemDef{
		{Name: "Short Sword", ItemType: inventory.TypeWeapon, SubType: inventory.SubTypeMelee, Effects: []effect.Effect{dmg("1d6")}},
		{Name: "Longbow", ItemType: inventory.TypeWeapon, SubType: inventory.SubTypeRanged, Effects: []effect.Effect{dmg("1d8")}},
		{Name: "Wand of Sparks", ItemType: inventory.TypeMagical, SubType: inventory.SubTypeWand, Effects: []effect.Effect{dmg("1d4")}, Usages: intp(2)},
		{Name: "Healing Potion", ItemType: inventory.TypeConsumable, Effects: []effect.Effect{{Kind: effect.KindHeal, Value: "2d4+2"}}},
		{Name: "Salve", ItemType: inventory.TypeConsumable, Effects: []effect.Effect{{Kind: effect.KindHeal, Value: "5"}}, Uses: intp(3)},
		{Name: "Fang", ItemType: inventory.TypeJunk},
	})
	require.NoError(t, err)
	return reg
}

func skillCatalog(t *testing.T) *skill.Registry {
	t.Helper()
	reg, err := skill.NewRegistryFrom([]*skill.Def{
		{Name: "Power Strike", Type: skill.TypeAttack, MinLevel: 1, Effects: []effect.Effect{dmg("1d8+2")}},
		{Name: "Firebolt", Type: skill.TypeMagic, MinLevel: 1, Effects: []effect.Effect{{Kind: effect.KindDamage, Value: "2d6", ManaCost: 5}}},
		{Name: "Bless", Type: skill.TypeBuff, MinLevel: 1, Effects: []effect.Effect{{Kind: effect.KindBuff, Value: "2", Duration: "1d4", ManaCost: 3}}},
		{Name: "Hex", Type: skill.TypeDebuff, MinLevel: 1, Effects: []effect.Effect{{Kind: effect.KindDebuff, Value: "1d4", Duration: "3", ManaCost: 4}}},
		{Name: "Meteor", Type: skill.TypeMagic, MinLevel: 5, Effects: []effect.Effect{{Kind: effect.KindDamage, Value: "8d6", ManaCost: 30}}},
	})
	require.NoError(t, err)
	return reg
}

var claw = npc.Attack{Name: "Claw", SubType: inventory.SubTypeMelee, Effects: []effect.Effect{dmg("1d6")}}

// enemy builds a CR 1 enemy with average stats and fixed HP.
func enemy(name string, hp int, attacks ...npc.Attack) *npc.Instance {
	tmpl := &npc.Template{
		Name:    name,
		Level:   1,
		CR:      1,
		MaxHP:   npc.HPRange{Min: hp, Max: hp},
		Stats:   scores(10, 10, 10),
		Attacks: attacks,
	}
	return npc.NewInstance(strings.ToLower(name)+"-1", tmpl, fixedSrc{})
}

func deps(t *testing.T, v int) combat.Deps {
	return combat.Deps{
		Skills: skillCatalog(t),
		Items:  itemCatalog(t),
		Dice:   roller(v),
		Logger: zap.NewNop(),
	}
}
