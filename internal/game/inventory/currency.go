package inventory

import (
	"fmt"
	"strings"
)

const (
	// CopperPerSilver is the number of copper pieces in one silver piece.
	CopperPerSilver = 10
	// CopperPerGold is the number of copper pieces in one gold piece.
	CopperPerGold = 100
)

// FormatGold returns a human-readable purse string for a whole number of gold pieces.
//
// Precondition: gold >= 0; negative values render as zero.
func FormatGold(gold int) string {
	if gold < 0 {
		gold = 0
	}
	return fmt.Sprintf("%d %s", gold, plural(gold, "gold piece"))
}

// DecomposeCopper splits a copper total into gold, silver and copper tiers.
//
// Precondition: total >= 0.
// Postcondition: gold*100 + silver*10 + copper == total; 0 <= silver < 10; 0 <= copper < 10.
func DecomposeCopper(total int) (gold, silver, copper int) {
	gold = total / CopperPerGold
	remainder := total % CopperPerGold
	silver = remainder / CopperPerSilver
	copper = remainder % CopperPerSilver
	return gold, silver, copper
}

// FormatCopper renders a copper total as tiers, omitting zero-valued higher
// tiers (copper always appears). Item values are priced in copper.
func FormatCopper(total int) string {
	gold, silver, copper := DecomposeCopper(total)
	var parts []string
	if gold > 0 {
		parts = append(parts, fmt.Sprintf("%d gp", gold))
	}
	if silver > 0 {
		parts = append(parts, fmt.Sprintf("%d sp", silver))
	}
	parts = append(parts, fmt.Sprintf("%d cp", copper))
	return strings.Join(parts, ", ")
}

// plural returns the singular form if n == 1, otherwise appends "s".
func plural(n int, singular string) string {
	if n == 1 {
		return singular
	}
	return singular + "s"
}
