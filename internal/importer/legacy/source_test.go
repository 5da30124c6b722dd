package legacy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/adventure/internal/game/effect"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/npc"
	"github.com/cory-johannsen/adventure/internal/game/skill"
	"github.com/cory-johannsen/adventure/internal/importer/legacy"
)

const skillsJSON = `[
	{"name": "Hex", "type": "defuff", "min_lv": 2, "description": "Curse.",
	 "effects": [{"kind": "Debuff", "value": 2, "duration": 3, "mana_cost": 4}]},
	{"name": "Power Strike", "type": "attack", "min_lv": 1, "description": "Hit hard.",
	 "effects": [{"kind": "damage", "value": "1d6"}]}
]`

const itemsJSON = `[
	{"name": "Wand of Sparks", "description": "Crackles.", "itemType": "Magic", "subType": "Wand",
	 "usages": 3, "effects": [{"kind": "damage", "value": "2d4"}]},
	{"name": "Healing Potion", "description": "Red.", "itemType": "consumable",
	 "uses": 1, "usages": null, "effects": [{"kind": "heal", "value": 10}]}
]`

const enemyJSON = `{
	"name": "Goblin", "description": "Small.", "max_hp": {"min": 5, "max": 9}, "cr": 0.25,
	"stats": {"STR": 8, "CON": 10, "DEX": 14, "INT": 10, "WIS": 8, "CHA": 8},
	"attacks": [{"name": "Scimitar", "subType": "Melee", "effects": [{"kind": "damage", "value": "1d6"}]}]
}`

func writeLegacy(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	return dir
}

func TestSource_Load_AllCatalogs(t *testing.T) {
	dir := writeLegacy(t, map[string]string{
		legacy.SkillFile: skillsJSON,
		legacy.ItemFile:  itemsJSON,
		legacy.EnemyFile: enemyJSON,
	})

	b, err := legacy.NewSource().Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), b.Name)

	require.Len(t, b.Skills, 2)
	assert.Equal(t, skill.TypeDebuff, b.Skills[0].Type)
	require.Len(t, b.Skills[0].Effects, 1)
	assert.Equal(t, effect.KindDebuff, b.Skills[0].Effects[0].Kind)
	assert.Equal(t, effect.Amount("2"), b.Skills[0].Effects[0].Value)
	assert.Equal(t, 4, b.Skills[0].Effects[0].ManaCost)
	assert.Equal(t, 2, b.Skills[0].MinLevel)

	require.Len(t, b.Items, 2)
	assert.Equal(t, inventory.TypeMagical, b.Items[0].ItemType)
	assert.Equal(t, inventory.SubTypeWand, b.Items[0].SubType)
	require.NotNil(t, b.Items[0].Usages)
	assert.Equal(t, 3, *b.Items[0].Usages)
	assert.Nil(t, b.Items[1].Usages)
	require.NotNil(t, b.Items[1].Uses)

	require.Len(t, b.Enemies, 1, "a single enemy object is wrapped in a list")
	g := b.Enemies[0]
	assert.Equal(t, npc.HPRange{Min: 5, Max: 9}, g.MaxHP)
	assert.Equal(t, 1, g.Level)
	assert.InDelta(t, 0.25, g.CR, 1e-9)
	assert.Equal(t, 14, g.Stats.DEX)
	assert.Equal(t, inventory.SubTypeMelee, g.Attacks[0].SubType)
	assert.Contains(t, b.Warnings, `enemy "Goblin" has no level; defaulting to 1`)
}

func TestSource_Load_MissingCatalogsWarn(t *testing.T) {
	dir := writeLegacy(t, map[string]string{legacy.SkillFile: skillsJSON})

	b, err := legacy.NewSource().Load(dir)
	require.NoError(t, err)
	assert.Len(t, b.Skills, 2)
	assert.Empty(t, b.Items)
	assert.Empty(t, b.Enemies)
	assert.Len(t, b.Warnings, 2)
}

func TestSource_Load_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := legacy.NewSource().Load("/nonexistent/legacy")
		require.Error(t, err)
	})
	t.Run("file instead of directory", func(t *testing.T) {
		dir := writeLegacy(t, map[string]string{legacy.SkillFile: skillsJSON})
		_, err := legacy.NewSource().Load(filepath.Join(dir, legacy.SkillFile))
		require.Error(t, err)
	})
	t.Run("malformed catalog", func(t *testing.T) {
		dir := writeLegacy(t, map[string]string{legacy.ItemFile: `[{"name": `})
		_, err := legacy.NewSource().Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), legacy.ItemFile)
	})
	t.Run("scalar catalog", func(t *testing.T) {
		dir := writeLegacy(t, map[string]string{legacy.EnemyFile: `42`})
		_, err := legacy.NewSource().Load(dir)
		require.Error(t, err)
	})
}

func TestDecodeList_EmptyAndNull(t *testing.T) {
	var defs []*skill.Def
	require.NoError(t, legacy.DecodeList([]byte("  \n"), &defs))
	require.NoError(t, legacy.DecodeList([]byte("null"), &defs))
	assert.Nil(t, defs)
}

func TestNormalizeEnemy_KeepsLevel(t *testing.T) {
	tmpl := &npc.Template{Name: " Wolf ", Level: 3, Attacks: []npc.Attack{{Name: "Bite", SubType: " MELEE "}}}
	warnings := legacy.NormalizeEnemy(tmpl)
	assert.Empty(t, warnings)
	assert.Equal(t, "Wolf", tmpl.Name)
	assert.Equal(t, 3, tmpl.Level)
	assert.Equal(t, inventory.SubTypeMelee, tmpl.Attacks[0].SubType)
}
