package narration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/session"
	"github.com/cory-johannsen/adventure/internal/game/skill"
)

// ErrUnavailable is returned when every model and retry has failed.
var ErrUnavailable = errors.New("narration: narrator unavailable")

// OutOfVoice is shown in place of a story turn the narrator could not produce.
const OutOfVoice = "The narrator is temporarily out of voice. Please try again shortly."

// Config tunes the language-model narrator.
type Config struct {
	// Models are tried in order; each gets Retries attempts.
	Models     []string
	Retries    int
	RetryDelay time.Duration
}

// Claude narrates through a language model, falling back to Plain output when
// the model cannot be reached.
type Claude struct {
	completer Completer
	cfg       Config
	logger    *zap.Logger
}

// NewClaude builds a narrator over completer.
//
// Precondition: completer and logger must be non-nil.
// Postcondition: returns an error if cfg names no model or a negative delay.
func NewClaude(completer Completer, cfg Config, logger *zap.Logger) (*Claude, error) {
	if len(cfg.Models) == 0 {
		return nil, errors.New("narration: at least one model is required")
	}
	if cfg.RetryDelay < 0 {
		return nil, fmt.Errorf("narration: retry delay must be >= 0, got %s", cfg.RetryDelay)
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	return &Claude{completer: completer, cfg: cfg, logger: logger}, nil
}

// complete walks the model chain until one reply succeeds.
func (c *Claude) complete(ctx context.Context, system string, msgs []session.Message) (string, error) {
	var last error
	for _, model := range c.cfg.Models {
		for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
			text, err := c.completer.Complete(ctx, model, system, msgs)
			if err == nil {
				return text, nil
			}
			last = err
			c.logger.Warn("narrator request failed",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if err := sleep(ctx, c.cfg.RetryDelay); err != nil {
				return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
		}
		c.logger.Info("narrator falling back to next model", zap.String("model", model))
	}
	return "", fmt.Errorf("%w: %w", ErrUnavailable, last)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const roundPrompt = `You narrate the combat of a D&D-style fantasy adventure.
Retell the round below vividly in at most four sentences of English prose.
Keep every name, number and outcome exactly as given. Do not invent new events.
Output only the narration.`

// NarrateRound implements Narrator. A model failure is logged and answered
// with the Plain rendering, so the error is always nil.
func (c *Claude) NarrateRound(ctx context.Context, res combat.RoundResult) (string, error) {
	plain := RenderRound(res)
	if plain == "" {
		return "", nil
	}
	text, err := c.complete(ctx, roundPrompt, []session.Message{{Role: roleUser, Content: plain}})
	if err != nil {
		c.logger.Warn("round narration fell back to plain text", zap.Error(err))
		return plain, nil
	}
	return strings.TrimSpace(text), nil
}

const storyRules = `You are the master of a D&D-style fantasy text adventure.
You must ALWAYS respond in valid JSON, with this structure:

{
"narration": "describe the scene immersively",
"found_items": [],
"lost_items": [],
"location": "current location of the player",
"quest": "current quest of the player",
"max_hp_change": 0,
"xp_gained": 0,
"gold_change": 0,
"encounter": false
}

Rules:
- ALWAYS respond in English.
- narration: narrative text only. Dialogue with NPCs belongs in narration.
- found_items: items found by the player. lost_items: items the player lost.
- location and quest: update them when they change.
- encounter: true only if a combat encounter starts.
- Use negative numbers for losses and positive numbers for gains.
- XP is only gained after combat.
- Never decide for the player.
- Output only raw JSON starting with { and ending with }. No markdown, no fences, no explanations.`

const alignmentRules = `The player character has a moral alignment and a righteousness alignment.

alignment_morality:
- good: compassionate, altruistic, avoids cruelty
- neutral: pragmatic, self-interested but not malicious
- evil: cruel, selfish, enjoys or accepts suffering

alignment_righteousness:
- lawful: respects rules, traditions, authority
- neutral: flexible, situational ethics
- chaotic: distrusts authority, values freedom over order

Use only these alignments and never change the character's alignment.
Narrate NPC reactions and consequences consistently with them. Do not force
actions. Acting strongly against alignment brings narrative tension; acting
extremely against it cannot succeed outright without extreme circumstances.`

// StoryPrompt assembles the system prompt for a story turn: the reply
// contract, the alignment rules, long-term memory, the character sheet and
// current state.
func StoryPrompt(player *character.Character, memory string) (string, error) {
	sheet, err := json.Marshal(player)
	if err != nil {
		return "", fmt.Errorf("encoding character sheet: %w", err)
	}
	var b strings.Builder
	b.WriteString(storyRules)
	b.WriteString("\n\n")
	b.WriteString(alignmentRules)
	fmt.Fprintf(&b, "\n\nLong-term memory: %s", memory)
	fmt.Fprintf(&b, "\n\nCharacter sheet: %s", sheet)
	fmt.Fprintf(&b, "\n\nCurrent state: location %q, quest %q, HP %d/%d, level %d.",
		player.Location, player.Quest, player.CurrentHP, player.MaxHP, player.Level)
	fmt.Fprintf(&b, "\nAlignment: %s %s.", player.EthicalAlignment, player.MoralAlignment)
	return b.String(), nil
}

// Tell narrates one story turn from recent history.
//
// A reply without a decodable object becomes plain narration with no deltas.
// Postcondition: on ErrUnavailable the returned Narration carries OutOfVoice.
func (c *Claude) Tell(ctx context.Context, player *character.Character, memory string, history []session.Message) (session.Narration, error) {
	system, err := StoryPrompt(player, memory)
	if err != nil {
		return session.Narration{}, err
	}
	text, err := c.complete(ctx, system, history)
	if err != nil {
		return session.Narration{Text: OutOfVoice}, err
	}
	var n session.Narration
	if err := ExtractJSON(text, &n); err != nil {
		c.logger.Debug("story reply is not structured", zap.Error(err))
		return session.Narration{Text: strings.TrimSpace(text)}, nil
	}
	if n.Text == "" {
		n.Text = strings.TrimSpace(text)
	}
	return n, nil
}

const summaryPrompt = "You are a reporter. Summarise the most important facts of the adventure."

// Summarize folds recent events into long-term memory.
//
// Postcondition: on error the current memory is returned unchanged.
func (c *Claude) Summarize(ctx context.Context, memory string, recent []session.Message) (string, error) {
	events, err := json.Marshal(recent)
	if err != nil {
		return memory, fmt.Errorf("encoding recent events: %w", err)
	}
	user := fmt.Sprintf("Current memory: %s\nRecent events: %s\nUpdate memory with new facts.", memory, events)
	text, err := c.complete(ctx, summaryPrompt, []session.Message{{Role: roleUser, Content: user}})
	if err != nil {
		return memory, err
	}
	var wrapped struct {
		Narration string `json:"narration"`
	}
	if ExtractJSON(text, &wrapped) == nil && wrapped.Narration != "" {
		return wrapped.Narration, nil
	}
	return strings.TrimSpace(text), nil
}

// classification is the reply contract of the intent fallback.
type classification struct {
	Action      string  `json:"action"`
	TargetSkill string  `json:"target_skill"`
	TargetItem  string  `json:"target_item"`
	Confidence  float64 `json:"confidence"`
}

// ClassifyIntent asks the model to map free text onto a combat intent when
// the keyword classifier is unsure.
//
// Postcondition: on any failure the returned intent is an attack, alongside
// the error.
func (c *Claude) ClassifyIntent(ctx context.Context, line string, skills []*skill.Def, items []*inventory.ItemDef) (combat.Intent, error) {
	fallback := combat.Intent{Kind: combat.IntentAttack}
	text, err := c.complete(ctx, classifyPrompt(skills, items), []session.Message{
		{Role: roleUser, Content: fmt.Sprintf("Player says: %q", line)},
	})
	if err != nil {
		return fallback, err
	}
	var cl classification
	if err := ExtractJSON(text, &cl); err != nil {
		return fallback, err
	}
	c.logger.Debug("intent classified by model",
		zap.String("action", cl.Action),
		zap.Float64("confidence", cl.Confidence),
	)
	switch strings.ToLower(strings.TrimSpace(cl.Action)) {
	case "use skill", "use_skill", "skill":
		return combat.Intent{Kind: combat.IntentUseSkill, Skill: cl.TargetSkill}, nil
	case "use item", "use_item", "item":
		return combat.Intent{Kind: combat.IntentUseItem, Item: cl.TargetItem}, nil
	case "run", "flee":
		return combat.Intent{Kind: combat.IntentRun}, nil
	case "attack", "":
		return fallback, nil
	}
	return fallback, fmt.Errorf("narration: unknown action %q", cl.Action)
}

func classifyPrompt(skills []*skill.Def, items []*inventory.ItemDef) string {
	var b strings.Builder
	b.WriteString("You are a combat action parser. Analyze the player's input and decide the best action.\nCharacter has:")
	if len(skills) > 0 {
		parts := make([]string, 0, len(skills))
		for _, s := range skills {
			parts = append(parts, fmt.Sprintf("%s (%s)", s.Name, s.Type))
		}
		b.WriteString(" Available skills: " + strings.Join(parts, ", ") + ".")
	}
	if len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			parts = append(parts, fmt.Sprintf("%s (%s)", it.Name, it.ItemType))
		}
		b.WriteString(" Available items: " + strings.Join(parts, ", ") + ".")
	}
	b.WriteString(`
Possible actions: attack, use skill, use item, run

Return JSON with:
- action: one of "attack", "use skill", "use item", "run"
- target_skill: the skill name, if action is "use skill"
- target_item: the item name, if action is "use item"
- confidence: 0.0 to 1.0

Example: {"action": "use skill", "target_skill": "Fire Bolt", "confidence": 0.8}`)
	return b.String()
}
