package combat

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/npc"
)

// State is a phase of the combat session state machine.
type State int

const (
	StateAwaitingInput State = iota
	StateResolvingPlayer
	StateResolvingEnemies
	StateCheckOutcome
	StateVictory
	StateDefeat
	StateEscaped
)

// String returns the state label.
func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting_input"
	case StateResolvingPlayer:
		return "resolving_player"
	case StateResolvingEnemies:
		return "resolving_enemies"
	case StateCheckOutcome:
		return "check_outcome"
	case StateVictory:
		return "victory"
	case StateDefeat:
		return "defeat"
	case StateEscaped:
		return "escaped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has ended.
func (s State) Terminal() bool {
	return s == StateVictory || s == StateDefeat || s == StateEscaped
}

// IntentKind is the closed set of player intents the engine accepts.
type IntentKind string

const (
	IntentAttack       IntentKind = "attack"
	IntentUseSkill     IntentKind = "use_skill"
	IntentUseItem      IntentKind = "use_item"
	IntentRun          IntentKind = "run"
	IntentSwitchTarget IntentKind = "switch_target"
)

// Intent is one untrusted player decision produced by an external classifier.
type Intent struct {
	Kind  IntentKind `json:"kind"`
	Skill string     `json:"skill,omitempty"`
	Item  string     `json:"item,omitempty"`
	// TargetIndex is a zero-based index into the alive-enemy roster.
	TargetIndex *int `json:"target_index,omitempty"`
}

// Target returns a pointer to i for use as Intent.TargetIndex.
func Target(i int) *int { return &i }

// Session errors.
var (
	// ErrInvalidTarget rejects an intent before any resolution; the round is not consumed.
	ErrInvalidTarget = errors.New("combat: invalid target index")
	// ErrSessionOver rejects intents submitted after victory, defeat or escape.
	ErrSessionOver = errors.New("combat: session is over")
	ErrNoEnemies   = errors.New("combat: encounter has no enemies")
	ErrPlayerDown  = errors.New("combat: player has no hit points")
)

// LogEntry is one numeric outcome in a round, for the narration layer.
type LogEntry struct {
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	Target     string `json:"target,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Hit        bool   `json:"hit"`
	AttackRoll int    `json:"attack_roll,omitempty"`
	Damage     int    `json:"damage"`
	Healed     int    `json:"healed,omitempty"`
	ManaSpent  int    `json:"mana_spent,omitempty"`
	Magnitude  int    `json:"magnitude,omitempty"`
	Duration   int    `json:"duration,omitempty"`
	Rolls      []int  `json:"rolls"`
	MessageKey string `json:"message_key"`
	Malformed  bool   `json:"malformed,omitempty"`
}

// EnemyView is the display state of one living enemy.
type EnemyView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CurrentHP int    `json:"current_hp"`
	MaxHP     int    `json:"max_hp"`
}

// Snapshot is the UI state emitted after every round.
type Snapshot struct {
	InCombat      bool        `json:"in_combat"`
	State         string      `json:"state"`
	Round         int         `json:"round"`
	Enemies       []EnemyView `json:"enemies"`
	Target        int         `json:"target"`
	PlayerHP      int         `json:"player_hp"`
	PlayerMaxHP   int         `json:"player_max_hp"`
	PlayerMana    int         `json:"player_mana"`
	PlayerMaxMana int         `json:"player_max_mana"`
}

// Reward is granted on victory.
type Reward struct {
	XP           int      `json:"xp"`
	Gold         int      `json:"gold"`
	Items        []string `json:"items,omitempty"`
	LevelsGained int      `json:"levels_gained"`
	Level        int      `json:"level"`
}

// RoundResult is the outcome of one Submit call.
type RoundResult struct {
	Round    int        `json:"round"`
	State    State      `json:"state"`
	Log      []LogEntry `json:"log"`
	Snapshot Snapshot   `json:"snapshot"`
	Reward   *Reward    `json:"reward,omitempty"`
}

// Deps are the collaborators a Session resolves against.
type Deps struct {
	Skills SkillCatalog
	Items  ItemCatalog
	Dice   Dice
	// Policy defaults to UniformPolicy over Dice.
	Policy Policy
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Session is one encounter: a player against a fixed roster of enemies.
// The player and roster are owned by the session for its lifetime; callers
// must not share them with another session. All methods are safe for
// concurrent use, but rounds are strictly sequential.
type Session struct {
	mu      sync.Mutex
	id      string
	player  *character.Character
	roster  []*npc.Instance
	target  int
	state   State
	round   int
	history []LogEntry
	reward  *Reward
	deps    Deps
	logger  *zap.Logger
}

// NewSession creates a session in StateAwaitingInput targeting the first enemy.
//
// Precondition: deps.Skills, deps.Items and deps.Dice must be non-nil.
// Postcondition: returns ErrNoEnemies for an empty roster and ErrPlayerDown for a downed player.
func NewSession(id string, player *character.Character, enemies []*npc.Instance, deps Deps) (*Session, error) {
	if player == nil || !player.IsAlive() {
		return nil, ErrPlayerDown
	}
	var roster []*npc.Instance
	for _, e := range enemies {
		if e != nil && e.IsAlive() {
			roster = append(roster, e)
		}
	}
	if len(roster) == 0 {
		return nil, ErrNoEnemies
	}
	if deps.Policy == nil {
		deps.Policy = UniformPolicy{Src: deps.Dice}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	player.Target = 0
	return &Session{
		id:     id,
		player: player,
		roster: roster,
		deps:   deps,
		logger: logger.With(zap.String("session", id)),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Player returns the session's player actor.
func (s *Session) Player() *character.Character { return s.player }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Roster returns the full encounter roster, alive or not.
func (s *Session) Roster() []*npc.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*npc.Instance(nil), s.roster...)
}

// History returns every log entry recorded so far.
func (s *Session) History() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogEntry(nil), s.history...)
}

// Reward returns the victory reward, or nil before victory.
func (s *Session) Reward() *Reward {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reward
}

// Snapshot returns the current UI state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Submit processes one player intent.
//
// switch_target only updates the target and consumes no round. Every other
// intent consumes a round: the player acts, then (unless the player escaped)
// every enemy still alive acts once, then the outcome is checked.
//
// Precondition: the session is not in a terminal state.
// Postcondition: returns ErrSessionOver after the session ended and
// ErrInvalidTarget for an out-of-range TargetIndex; neither mutates state.
func (s *Session) Submit(in Intent) (RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return RoundResult{}, ErrSessionOver
	}
	alive := s.alive()
	if in.TargetIndex != nil {
		if idx := *in.TargetIndex; idx < 0 || idx >= len(alive) {
			return RoundResult{}, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidTarget, idx, len(alive))
		}
	}
	if in.Kind == IntentSwitchTarget {
		if in.TargetIndex == nil {
			return RoundResult{}, fmt.Errorf("%w: switch_target requires an index", ErrInvalidTarget)
		}
		s.setTarget(*in.TargetIndex)
		return RoundResult{Round: s.round, State: s.state, Log: []LogEntry{}, Snapshot: s.snapshot()}, nil
	}
	if in.TargetIndex != nil {
		s.setTarget(*in.TargetIndex)
	}

	s.round++
	log := []LogEntry{}

	s.state = StateResolvingPlayer
	if escaped := s.resolvePlayer(in, &log); escaped {
		s.state = StateEscaped
		return s.finish(log), nil
	}

	s.state = StateResolvingEnemies
	s.resolveEnemies(&log)

	s.state = StateCheckOutcome
	s.checkOutcome(&log)
	return s.finish(log), nil
}

func (s *Session) resolvePlayer(in Intent, log *[]LogEntry) bool {
	switch in.Kind {
	case IntentAttack:
		s.playerAttack(log)
	case IntentUseSkill:
		s.playerSkill(in.Skill, log)
	case IntentUseItem:
		s.playerItem(in.Item, log)
	case IntentRun:
		return s.playerRun(log)
	default:
		*log = append(*log, LogEntry{
			Actor:      s.player.Name,
			Action:     string(in.Kind),
			Rolls:      []int{},
			MessageKey: MsgHesitate,
		})
	}
	return false
}

func (s *Session) playerAttack(log *[]LogEntry) {
	tgt := s.currentTarget()
	entry := LogEntry{
		Actor:  s.player.Name,
		Action: string(IntentAttack),
		Target: tgt.Name,
		Detail: s.player.EquippedWeapon,
		Rolls:  []int{},
	}
	if s.player.EquippedWeapon == "" {
		entry.MessageKey = MsgNoWeapon
		*log = append(*log, entry)
		return
	}
	weapon := s.deps.Items.ByName(s.player.EquippedWeapon)
	if weapon == nil {
		entry.MessageKey = MsgWeaponNotFound
		*log = append(*log, entry)
		return
	}
	res := ExecuteAction(s.player, tgt.Character, Action{Weapon: weapon}, s.deps.Dice)
	fillAttack(&entry, res)
	entry.MessageKey = MsgAttackMiss
	if res.Hit {
		entry.MessageKey = MsgAttackHit
	}
	*log = append(*log, entry)
	noteMalformed(entry, log)
	s.noteDefeat(tgt, log)
}

func (s *Session) playerSkill(name string, log *[]LogEntry) {
	tgt := s.currentTarget()
	entry := LogEntry{
		Actor:  s.player.Name,
		Action: string(IntentUseSkill),
		Target: tgt.Name,
		Detail: name,
		Rolls:  []int{},
	}
	if name == "" {
		if len(s.player.Skills) == 0 {
			entry.MessageKey = MsgNoSkills
			*log = append(*log, entry)
			return
		}
		name = s.player.Skills[0]
		entry.Detail = name
	}
	def := s.deps.Skills.ByName(name)
	switch {
	case def == nil:
		entry.MessageKey = MsgSkillNotFound
	case !s.player.KnowsSkill(def.Name):
		entry.MessageKey = MsgSkillNotKnown
	case def.MinLevel > s.player.Level:
		entry.MessageKey = MsgSkillLevelTooLow
	}
	if entry.MessageKey != "" {
		s.logger.Debug("skill rejected", zap.String("skill", name), zap.String("message_key", entry.MessageKey))
		*log = append(*log, entry)
		return
	}
	entry.Detail = def.Name

	weapon := s.deps.Items.ByName(s.player.EquippedWeapon)
	free := def.IsSpell() && weapon != nil && weapon.IsWand() && WandCharges(s.player, weapon) > 0
	res := ExecuteAction(s.player, tgt.Character, Action{Skill: def, Weapon: weapon, ResourceFree: free}, s.deps.Dice)
	if free && res.Hit {
		left := SpendWandCharge(s.player, weapon)
		s.logger.Debug("wand charge spent", zap.String("wand", weapon.Name), zap.Int("charges_left", left))
	}

	fillAttack(&entry, res)
	entry.ManaSpent = res.Check.ManaSpent
	entry.Magnitude = res.Buff.Total + res.Debuff.Total
	entry.Duration = max(res.Buff.Duration, res.Debuff.Duration)
	switch {
	case res.Check.InsufficientMana:
		entry.MessageKey = MsgInsufficientMana
	case res.Hit:
		entry.MessageKey = MsgSkillHit
	default:
		entry.MessageKey = MsgSkillMiss
	}
	*log = append(*log, entry)
	noteMalformed(entry, log)
	s.noteDefeat(tgt, log)
}

func (s *Session) playerItem(name string, log *[]LogEntry) {
	entry := LogEntry{
		Actor:  s.player.Name,
		Action: string(IntentUseItem),
		Target: s.player.Name,
		Detail: name,
		Rolls:  []int{},
	}
	if name == "" {
		if len(s.player.Inventory) == 0 {
			entry.MessageKey = MsgNoItems
			*log = append(*log, entry)
			return
		}
		name = s.player.Inventory[0]
		entry.Detail = name
	}
	res, err := UseItem(s.player, name, s.deps.Items, s.deps.Dice)
	switch {
	case errors.Is(err, ErrItemNotInInventory):
		entry.MessageKey = MsgItemNotFound
	case errors.Is(err, ErrItemUnknown):
		entry.MessageKey = MsgItemUnknown
	case res.Equipped:
		entry.MessageKey = MsgItemEquipped
	case len(res.Rolls) > 0:
		entry.MessageKey = MsgItemHealed
	default:
		entry.MessageKey = MsgItemUsed
	}
	if err == nil {
		entry.Detail = res.Item
		entry.Hit = true
		entry.Healed = res.Healed
		entry.Malformed = res.Malformed
		for _, r := range res.Rolls {
			entry.Rolls = append(entry.Rolls, r.Dice...)
		}
	}
	*log = append(*log, entry)
	noteMalformed(entry, log)
}

func (s *Session) playerRun(log *[]LogEntry) bool {
	roll := s.deps.Dice.D20()
	total := roll + s.player.Stats.Mod(character.DEX)
	escaped := total >= FleeDC
	entry := LogEntry{
		Actor:      s.player.Name,
		Action:     string(IntentRun),
		Hit:        escaped,
		AttackRoll: total,
		Rolls:      []int{roll},
		MessageKey: MsgRunFail,
	}
	if escaped {
		entry.MessageKey = MsgRunSuccess
	}
	*log = append(*log, entry)
	return escaped
}

func (s *Session) resolveEnemies(log *[]LogEntry) {
	for _, e := range s.alive() {
		idx := s.deps.Policy.Choose(e, s.player)
		out := ExecuteEnemyAction(e, s.player, idx, s.deps.Dice)
		entry := LogEntry{
			Actor:      e.Name,
			Action:     string(IntentAttack),
			Target:     s.player.Name,
			Detail:     out.Attack,
			Hit:        out.Hit,
			AttackRoll: out.Check.Total,
			Damage:     out.Damage,
			Rolls:      out.Roll.Dice(),
			Malformed:  out.Roll.Malformed,
		}
		if entry.Rolls == nil {
			entry.Rolls = []int{}
		}
		switch {
		case out.Hesitated:
			entry.MessageKey = MsgEnemyHesitate
		case out.Hit:
			entry.MessageKey = MsgEnemyHit
		default:
			entry.MessageKey = MsgEnemyMiss
		}
		*log = append(*log, entry)
		noteMalformed(entry, log)
	}
}

func (s *Session) checkOutcome(log *[]LogEntry) {
	if !s.player.IsAlive() {
		s.state = StateDefeat
		*log = append(*log, LogEntry{Actor: s.player.Name, Action: "defeated", Rolls: []int{}, MessageKey: MsgPlayerDefeated})
		return
	}
	if len(s.alive()) > 0 {
		s.state = StateAwaitingInput
		return
	}

	s.state = StateVictory
	reward := &Reward{}
	for _, e := range s.roster {
		reward.XP += e.XPReward()
		if e.Loot != nil {
			loot := npc.GenerateLoot(*e.Loot, s.deps.Dice)
			reward.Gold += loot.Gold
			reward.Items = append(reward.Items, loot.Items...)
		}
	}
	s.player.Gold += reward.Gold
	for _, it := range reward.Items {
		s.player.AddItem(it)
	}
	reward.LevelsGained = s.player.GainExperience(reward.XP)
	reward.Level = s.player.Level
	s.reward = reward

	*log = append(*log, LogEntry{Actor: s.player.Name, Action: "victory", Rolls: []int{}, MessageKey: MsgVictory})
	if reward.LevelsGained > 0 {
		*log = append(*log, LogEntry{Actor: s.player.Name, Action: "level_up", Detail: fmt.Sprintf("level %d", reward.Level), Rolls: []int{}, MessageKey: MsgLevelUp})
	}
}

func (s *Session) finish(log []LogEntry) RoundResult {
	s.history = append(s.history, log...)
	s.logger.Info("combat round resolved",
		zap.Int("round", s.round),
		zap.String("state", s.state.String()),
		zap.Int("player_hp", s.player.CurrentHP),
		zap.Int("enemies_alive", len(s.alive())),
	)
	res := RoundResult{Round: s.round, State: s.state, Log: log, Snapshot: s.snapshot()}
	if s.state == StateVictory {
		res.Reward = s.reward
	}
	return res
}

func (s *Session) noteDefeat(tgt *npc.Instance, log *[]LogEntry) {
	if tgt.IsAlive() {
		return
	}
	*log = append(*log, LogEntry{Actor: tgt.Name, Action: "defeated", Rolls: []int{}, MessageKey: MsgEnemyDefeated})
	if n := len(s.alive()); s.target >= n {
		s.setTarget(max(0, n-1))
	}
}

// noteMalformed follows an entry whose effect dice failed to parse with an
// explicit zero-effect entry so the narration can say the effect fizzled.
func noteMalformed(src LogEntry, log *[]LogEntry) {
	if !src.Malformed {
		return
	}
	*log = append(*log, LogEntry{
		Actor:      src.Actor,
		Action:     src.Action,
		Target:     src.Target,
		Detail:     src.Detail,
		Rolls:      []int{},
		Malformed:  true,
		MessageKey: MsgMalformedDice,
	})
}

func (s *Session) alive() []*npc.Instance {
	var out []*npc.Instance
	for _, e := range s.roster {
		if e.IsAlive() {
			out = append(out, e)
		}
	}
	return out
}

func (s *Session) currentTarget() *npc.Instance {
	alive := s.alive()
	if s.target >= len(alive) {
		s.setTarget(max(0, len(alive)-1))
	}
	return alive[s.target]
}

func (s *Session) setTarget(i int) {
	s.target = i
	s.player.Target = i
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		InCombat:    !s.state.Terminal(),
		State:       s.state.String(),
		Round:       s.round,
		Enemies:     []EnemyView{},
		Target:      s.target,
		PlayerHP:    s.player.CurrentHP,
		PlayerMaxHP: s.player.MaxHP,
	}
	if s.player.Mana != nil {
		snap.PlayerMana = s.player.Mana.Current
		snap.PlayerMaxMana = s.player.Mana.Max
	}
	for _, e := range s.alive() {
		snap.Enemies = append(snap.Enemies, EnemyView{ID: e.ID, Name: e.Name, CurrentHP: e.CurrentHP, MaxHP: e.MaxHP})
	}
	return snap
}

func fillAttack(entry *LogEntry, res AttackResult) {
	entry.Hit = res.Hit
	entry.AttackRoll = res.Check.Total
	entry.Damage = res.Damage
	entry.Malformed = res.Malformed()
	for _, r := range res.Rolls() {
		entry.Rolls = append(entry.Rolls, r.Dice...)
	}
}
