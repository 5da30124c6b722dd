package npc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/npc"
)

func TestLootTable_Validate(t *testing.T) {
	assert.NoError(t, (&npc.LootTable{}).Validate())
	assert.Error(t, (&npc.LootTable{Gold: &npc.GoldDrop{Min: -1, Max: 3}}).Validate())
	assert.Error(t, (&npc.LootTable{Gold: &npc.GoldDrop{Min: 5, Max: 3}}).Validate())
	assert.Error(t, (&npc.LootTable{Items: []npc.ItemDrop{{Item: "Gem", Chance: 0, MinQty: 1, MaxQty: 1}}}).Validate())
	assert.Error(t, (&npc.LootTable{Items: []npc.ItemDrop{{Item: "Gem", Chance: 1, MinQty: 2, MaxQty: 1}}}).Validate())
	assert.Error(t, (&npc.LootTable{Items: []npc.ItemDrop{{Chance: 1, MinQty: 1, MaxQty: 1}}}).Validate())
}

func TestGenerateLoot_GuaranteedItem(t *testing.T) {
	lt := npc.LootTable{Items: []npc.ItemDrop{{Item: "Healing Potion", Chance: 1.0, MinQty: 2, MaxQty: 2}}}
	res := npc.GenerateLoot(lt, dice.NewCryptoSource())
	assert.Equal(t, []string{"Healing Potion", "Healing Potion"}, res.Items)
	assert.Equal(t, 0, res.Gold)
}

func TestProperty_GenerateLoot_GoldInRange(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(0, 50).Draw(rt, "min")
		hi := rapid.IntRange(lo, 100).Draw(rt, "max")
		res := npc.GenerateLoot(npc.LootTable{Gold: &npc.GoldDrop{Min: lo, Max: hi}}, src)
		if hi > 0 {
			assert.GreaterOrEqual(rt, res.Gold, lo)
		}
		assert.LessOrEqual(rt, res.Gold, hi)
	})
}
