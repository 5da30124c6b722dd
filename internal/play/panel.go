package play

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
)

// Styles used by the terminal game.
var (
	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("228"))

	styleLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleTarget = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	styleStory = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleAlert = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	styleReward = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("34"))

	stylePrompt = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))
)

// StatusPanel renders the character sheet summary and, when snap describes
// an active encounter, the enemy roster with the current target marked.
// Enemies are numbered from 1 to match the "target N" command.
func StatusPanel(p *character.Character, snap *combat.Snapshot) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("%s, level %d %s %s", p.Name, p.Level, p.Race, p.Class)))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %d/%d", styleLabel.Render("HP"), p.CurrentHP, p.MaxHP)
	if p.Mana != nil {
		fmt.Fprintf(&b, "  %s %d/%d", styleLabel.Render("Mana"), p.Mana.Current, p.Mana.Max)
	}
	fmt.Fprintf(&b, "  %s %d/%d", styleLabel.Render("XP"), p.Experience, character.XPThreshold(p.Level))
	fmt.Fprintf(&b, "  %s %s\n", styleLabel.Render("Gold"), inventory.FormatGold(p.Gold))

	fmt.Fprintf(&b, "%s %s  %s %s\n", styleLabel.Render("Location"), p.Location, styleLabel.Render("Quest"), p.Quest)
	weapon := p.EquippedWeapon
	if weapon == "" {
		weapon = "none"
	}
	fmt.Fprintf(&b, "%s %s", styleLabel.Render("Weapon"), weapon)
	if len(p.Inventory) > 0 {
		fmt.Fprintf(&b, "  %s %s", styleLabel.Render("Pack"), strings.Join(p.Inventory, ", "))
	}

	if snap != nil && snap.InCombat {
		fmt.Fprintf(&b, "\n\n%s\n", styleTitle.Render(fmt.Sprintf("Round %d", snap.Round+1)))
		for i, e := range snap.Enemies {
			line := fmt.Sprintf("%d. %s %d/%d", i+1, e.Name, e.CurrentHP, e.MaxHP)
			if i == snap.Target {
				line = styleTarget.Render("> " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line)
			if i < len(snap.Enemies)-1 {
				b.WriteString("\n")
			}
		}
	}
	return stylePanel.Render(b.String())
}
