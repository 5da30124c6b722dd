// Package session holds per-player adventure state between narrated story
// turns and the combat encounters they trigger.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/dice"
	"github.com/cory-johannsen/adventure/internal/game/npc"
)

var (
	ErrPlayerNotFound   = errors.New("session: player not found")
	ErrAlreadyInCombat  = errors.New("session: already in combat")
	ErrNotInCombat      = errors.New("session: not in combat")
	ErrPlayerRegistered = errors.New("session: player already registered")
)

// Starting narrative state for a new adventure.
const (
	StartLocation = "Initial Tavern"
	StartQuest    = "None"
	StartMemory   = "The character is located in the Initial Tavern. No relevant events so far."
)

// Narration is the structured outcome of one narrated story turn.
// Negative changes are losses.
type Narration struct {
	Text        string   `json:"narration"`
	FoundItems  []string `json:"found_items"`
	LostItems   []string `json:"lost_items"`
	Location    string   `json:"location"`
	Quest       string   `json:"quest"`
	MaxHPChange int      `json:"max_hp_change"`
	XPGained    int      `json:"xp_gained"`
	GoldChange  int      `json:"gold_change"`
	// ManaChange suppresses passive regeneration for the turn when present.
	ManaChange *int `json:"mana_change,omitempty"`
	Encounter  bool `json:"encounter"`
}

// Rules tune the story loop between encounters.
type Rules struct {
	// EncounterChance is the percent chance of an ambush per eligible turn.
	EncounterChance int
	// EncounterCooldown is the number of turns after a combat before an ambush may occur.
	EncounterCooldown int
	// SafeLocations never produce ambushes; compared case-insensitively.
	SafeLocations     []string
	ManaRegen         int
	ManaRegenInterval int
	WandRechargeTurns int
	// MemoryInterval is how often, in turns, long-term memory should be summarized.
	MemoryInterval int
	// HistoryWindow is the number of recent messages handed to the narrator.
	HistoryWindow int
}

// DefaultRules returns the standard story-loop tuning.
func DefaultRules() Rules {
	return Rules{
		EncounterChance:   20,
		EncounterCooldown: 30,
		SafeLocations:     []string{"tavern", "town", "city", "shop", "inn", "initial tavern", "taverna iniziale"},
		ManaRegen:         5,
		ManaRegenInterval: 5,
		WandRechargeTurns: 20,
		MemoryInterval:    10,
		HistoryWindow:     10,
	}
}

// Trigger reports why an encounter should start.
type Trigger int

const (
	TriggerNone Trigger = iota
	// TriggerAmbush is a probabilistic encounter outside safe locations.
	TriggerAmbush
	// TriggerScripted is an encounter requested by the narrator.
	TriggerScripted
)

func (t Trigger) String() string {
	switch t {
	case TriggerAmbush:
		return "ambush"
	case TriggerScripted:
		return "scripted"
	default:
		return "none"
	}
}

// TurnResult summarizes what ApplyNarration changed.
type TurnResult struct {
	Turn            int
	Trigger         Trigger
	LevelsGained    int
	ManaRegenerated bool
	Recharged       []string
	// SummarizeMemory is set on turns where long-term memory is due for a refresh.
	SummarizeMemory bool
}

// Message is one entry of the recent story history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Spawner produces an encounter roster for a player level. *npc.Spawner satisfies it.
type Spawner interface {
	SpawnEncounter(playerLevel int) ([]*npc.Instance, error)
}

// GameSession is one player's adventure: the character, the story turn
// counter, narrative memory, and at most one active combat.
// All methods are safe for concurrent use.
type GameSession struct {
	mu sync.Mutex

	uid    string
	player *character.Character
	rules  Rules
	items  combat.ItemCatalog
	src    dice.Source
	logger *zap.Logger

	turn           int
	lastCombatTurn int
	lastRecharge   int
	memory         string
	history        []Message

	engine *combat.Engine
	fight  *combat.Session
}

// NewGameSession starts an adventure for player.
//
// Precondition: player, items, src and logger must be non-nil.
// Postcondition: the player has a location and quest; memory holds the opening summary.
func NewGameSession(uid string, player *character.Character, rules Rules, items combat.ItemCatalog, src dice.Source, logger *zap.Logger) *GameSession {
	if player.Location == "" {
		player.Location = StartLocation
	}
	if player.Quest == "" {
		player.Quest = StartQuest
	}
	return &GameSession{
		uid:    uid,
		player: player,
		rules:  rules,
		items:  items,
		src:    src,
		logger: logger.With(zap.String("player", uid)),
		memory: StartMemory,
	}
}

// UID returns the owning player's identifier.
func (g *GameSession) UID() string { return g.uid }

// Player returns the player character.
func (g *GameSession) Player() *character.Character { return g.player }

// Turn returns the number of narrated turns so far.
func (g *GameSession) Turn() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn
}

// Memory returns the long-term memory summary.
func (g *GameSession) Memory() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.memory
}

// SetMemory replaces the long-term memory summary. Blank summaries are ignored.
func (g *GameSession) SetMemory(summary string) {
	if strings.TrimSpace(summary) == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.memory = summary
}

// Record appends a message to the story history.
func (g *GameSession) Record(role, content string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.history = append(g.history, Message{Role: role, Content: content})
}

// RecentHistory returns the last Rules.HistoryWindow messages.
func (g *GameSession) RecentHistory() []Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	start := max(0, len(g.history)-g.rules.HistoryWindow)
	return append([]Message(nil), g.history[start:]...)
}

// ApplyNarration advances the story by one turn.
//
// The encounter decision uses the location held before this turn's update:
// an ambush requires the cooldown to have elapsed, a successful chance roll
// and a location outside Rules.SafeLocations; otherwise a narrator-requested
// encounter is scripted. Deltas are then applied: items found (if not
// already carried) and lost, max HP (floored at 1), gold (floored at 0), XP
// through the leveling rules, and mana either from the explicit change or
// from passive regeneration every ManaRegenInterval turns. Carried wands
// recharge every WandRechargeTurns turns.
//
// Postcondition: Turn() is incremented by one.
func (g *GameSession) ApplyNarration(n Narration) TurnResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.turn++
	res := TurnResult{Turn: g.turn}
	if n.Text != "" {
		g.history = append(g.history, Message{Role: "assistant", Content: n.Text})
	}

	switch {
	case g.ambushDue():
		res.Trigger = TriggerAmbush
	case n.Encounter:
		res.Trigger = TriggerScripted
	}

	p := g.player
	for _, it := range n.FoundItems {
		if _, carried := p.HasItem(it); !carried {
			p.AddItem(it)
		}
	}
	for _, it := range n.LostItems {
		p.RemoveItem(it)
	}
	if n.MaxHPChange != 0 {
		p.AdjustMaxHP(n.MaxHPChange)
	}
	p.Gold = max(0, p.Gold+n.GoldChange)
	if n.XPGained > 0 {
		res.LevelsGained = p.GainExperience(n.XPGained)
	}
	switch {
	case n.ManaChange != nil:
		p.RestoreMana(*n.ManaChange)
	case g.rules.ManaRegenInterval > 0 && g.turn%g.rules.ManaRegenInterval == 0 && p.Mana != nil:
		p.RestoreMana(g.rules.ManaRegen)
		res.ManaRegenerated = true
	}
	if n.Location != "" {
		p.Location = n.Location
	}
	if n.Quest != "" {
		p.Quest = n.Quest
	}

	if g.rules.WandRechargeTurns > 0 && g.turn-g.lastRecharge >= g.rules.WandRechargeTurns {
		res.Recharged = combat.RechargeWands(p, g.items)
		g.lastRecharge = g.turn
	}
	res.SummarizeMemory = g.rules.MemoryInterval > 0 && g.turn%g.rules.MemoryInterval == 0

	g.logger.Debug("story turn applied",
		zap.Int("turn", g.turn),
		zap.String("location", p.Location),
		zap.String("trigger", res.Trigger.String()),
		zap.Int("levels_gained", res.LevelsGained),
	)
	return res
}

func (g *GameSession) ambushDue() bool {
	if g.turn-g.lastCombatTurn <= g.rules.EncounterCooldown {
		return false
	}
	if g.src.Intn(100) >= g.rules.EncounterChance {
		return false
	}
	return !g.safe(g.player.Location)
}

func (g *GameSession) safe(location string) bool {
	loc := strings.TrimSpace(location)
	for _, s := range g.rules.SafeLocations {
		if strings.EqualFold(loc, s) {
			return true
		}
	}
	return false
}

// Progress is the persistable story state of a GameSession.
type Progress struct {
	Turn           int       `json:"turn"`
	LastCombatTurn int       `json:"last_combat_turn"`
	Memory         string    `json:"memory"`
	History        []Message `json:"history"`
}

// Progress returns a copy of the story state.
func (g *GameSession) Progress() Progress {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Progress{
		Turn:           g.turn,
		LastCombatTurn: g.lastCombatTurn,
		Memory:         g.memory,
		History:        append([]Message(nil), g.history...),
	}
}

// Restore resumes a saved story. Wands recharge on the normal schedule
// counted from the restored turn.
//
// Precondition: no encounter is active.
func (g *GameSession) Restore(p Progress) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.turn = p.Turn
	g.lastCombatTurn = p.LastCombatTurn
	g.lastRecharge = p.Turn
	if p.Memory != "" {
		g.memory = p.Memory
	}
	g.history = append([]Message(nil), p.History...)
}

// InCombat reports whether an encounter is active.
func (g *GameSession) InCombat() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fight != nil
}

// Combat returns the active encounter, if any.
func (g *GameSession) Combat() (*combat.Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fight, g.fight != nil
}

// BeginEncounter spawns a roster for the player's level and starts combat.
//
// Precondition: spawner, engine and the deps collaborators must be non-nil.
// Postcondition: returns ErrAlreadyInCombat if an encounter is active.
func (g *GameSession) BeginEncounter(spawner Spawner, engine *combat.Engine, deps combat.Deps) (*combat.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fight != nil {
		return nil, ErrAlreadyInCombat
	}
	enemies, err := spawner.SpawnEncounter(g.player.Level)
	if err != nil {
		return nil, fmt.Errorf("spawning encounter: %w", err)
	}
	s, err := engine.Start(g.player, enemies, deps)
	if err != nil {
		return nil, err
	}
	g.engine = engine
	g.fight = s
	return s, nil
}

// Act submits intent to the active encounter. A round that ends the encounter
// releases it; victory and escape restart the ambush cooldown.
//
// Postcondition: returns ErrNotInCombat when no encounter is active.
func (g *GameSession) Act(intent combat.Intent) (combat.RoundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fight == nil {
		return combat.RoundResult{}, ErrNotInCombat
	}
	res, err := g.fight.Submit(intent)
	if err != nil {
		return res, err
	}
	if res.State.Terminal() {
		if res.State != combat.StateDefeat {
			g.lastCombatTurn = g.turn
		}
		g.logger.Info("encounter finished",
			zap.String("state", res.State.String()),
			zap.Int("rounds", res.Round),
		)
		g.release()
	}
	return res, nil
}

// EndEncounter abandons the active encounter without resolving it.
//
// Postcondition: returns ErrNotInCombat when no encounter is active.
func (g *GameSession) EndEncounter() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fight == nil {
		return ErrNotInCombat
	}
	g.release()
	return nil
}

func (g *GameSession) release() {
	if err := g.engine.End(g.fight.ID()); err != nil {
		g.logger.Warn("releasing encounter", zap.Error(err))
	}
	g.fight = nil
}
