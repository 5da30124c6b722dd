package character

// Level-up rewards.
const (
	LevelUpHPBonus   = 10
	LevelUpManaBonus = 10
)

// XPThreshold returns the experience total required to advance past level.
//
// Postcondition: XPThreshold(level) == (level+1) * 100.
func XPThreshold(level int) int {
	return (level + 1) * 100
}

// GainExperience adds xp and applies every level-up it earns.
// Each level grants LevelUpHPBonus max HP and LevelUpManaBonus mana, and fully restores HP.
//
// Precondition: xp >= 0.
// Postcondition: c.Experience < XPThreshold(c.Level); returns the number of levels gained.
func (c *Character) GainExperience(xp int) int {
	if xp > 0 {
		c.Experience += xp
	}
	gained := 0
	for c.Experience >= XPThreshold(c.Level) {
		c.Level++
		c.MaxHP += LevelUpHPBonus
		if c.Mana != nil {
			c.Mana.Max += LevelUpManaBonus
			c.Mana.Current += LevelUpManaBonus
		}
		gained++
	}
	if gained > 0 {
		c.CurrentHP = c.MaxHP
	}
	return gained
}
