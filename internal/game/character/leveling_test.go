package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/adventure/internal/game/character"
)

func TestXPThreshold(t *testing.T) {
	assert.Equal(t, 200, character.XPThreshold(1))
	assert.Equal(t, 400, character.XPThreshold(3))
}

func TestGainExperience_LevelsUpAtThreshold(t *testing.T) {
	c := newHero()
	c.Level = 3
	c.Experience = 370
	c.CurrentHP = 4

	gained := c.GainExperience(30)

	assert.Equal(t, 1, gained)
	assert.Equal(t, 4, c.Level)
	assert.Equal(t, 40, c.MaxHP)
	assert.Equal(t, c.MaxHP, c.CurrentHP)
	assert.Equal(t, 30, c.Mana.Max)
	assert.Equal(t, 30, c.Mana.Current)
}

func TestGainExperience_BelowThreshold(t *testing.T) {
	c := newHero()
	c.Level = 3
	c.Experience = 369
	c.CurrentHP = 4

	assert.Equal(t, 0, c.GainExperience(30))
	assert.Equal(t, 3, c.Level)
	assert.Equal(t, 4, c.CurrentHP)
	assert.Equal(t, 399, c.Experience)
}

func TestProperty_GainExperience_EndsBelowThreshold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newHero()
		c.Level = rapid.IntRange(1, 20).Draw(rt, "level")
		c.Experience = rapid.IntRange(0, character.XPThreshold(c.Level)-1).Draw(rt, "xp")
		startLevel, startMax := c.Level, c.MaxHP

		gained := c.GainExperience(rapid.IntRange(0, 5000).Draw(rt, "gain"))

		assert.Less(rt, c.Experience, character.XPThreshold(c.Level))
		assert.Equal(rt, startLevel+gained, c.Level)
		assert.Equal(rt, startMax+gained*character.LevelUpHPBonus, c.MaxHP)
	})
}
