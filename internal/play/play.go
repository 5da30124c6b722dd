// Package play runs the interactive adventure: narrated story turns that
// may trigger encounters, and the round-by-round combat loop between them.
package play

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/inventory"
	"github.com/cory-johannsen/adventure/internal/game/session"
	"github.com/cory-johannsen/adventure/internal/game/skill"
	"github.com/cory-johannsen/adventure/internal/intent"
	"github.com/cory-johannsen/adventure/internal/narration"
)

// Storyteller narrates story turns and maintains long-term memory.
type Storyteller interface {
	Tell(ctx context.Context, player *character.Character, memory string, history []session.Message) (session.Narration, error)
	Summarize(ctx context.Context, memory string, recent []session.Message) (string, error)
}

// IntentModel classifies combat input the keyword classifier could not.
type IntentModel interface {
	ClassifyIntent(ctx context.Context, line string, skills []*skill.Def, items []*inventory.ItemDef) (combat.Intent, error)
}

// Saver persists the player and story progress.
type Saver interface {
	Save(ctx context.Context, player *character.Character, p session.Progress) error
}

// Outcome is how a Run ended.
type Outcome int

const (
	// OutcomeQuit means the player left or input ended.
	OutcomeQuit Outcome = iota
	// OutcomeDefeated means the player fell in combat.
	OutcomeDefeated
)

func (o Outcome) String() string {
	if o == OutcomeDefeated {
		return "defeated"
	}
	return "quit"
}

// Commands recognised at the story prompt.
var (
	quitWords   = map[string]bool{"quit": true, "exit": true}
	statusWords = map[string]bool{"status": true, "sheet": true}
)

// Runner drives one GameSession from a line-oriented terminal.
type Runner struct {
	Game       *session.GameSession
	Spawner    session.Spawner
	Engine     *combat.Engine
	Deps       combat.Deps
	Classifier *intent.Classifier
	Teller     Storyteller
	// Intents is optional; without it unclassified combat input is an attack.
	Intents  IntentModel
	Narrator narration.Narrator
	// Saver is optional; without it nothing is persisted.
	Saver  Saver
	Logger *zap.Logger

	in  *bufio.Scanner
	out io.Writer
}

// errInputClosed ends the loop when the input stream is exhausted.
var errInputClosed = errors.New("play: input closed")

// Run reads player lines from in until the player quits, input ends or the
// player is defeated. Progress is saved after every story turn and encounter.
//
// Precondition: every field except Intents and Saver must be set.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (Outcome, error) {
	r.in = bufio.NewScanner(in)
	r.out = out

	r.printf("%s\n", StatusPanel(r.Game.Player(), nil))
	for {
		if err := ctx.Err(); err != nil {
			return OutcomeQuit, err
		}
		line, err := r.prompt("What do you do?")
		if errors.Is(err, errInputClosed) {
			return OutcomeQuit, r.save(ctx)
		}
		if err != nil {
			return OutcomeQuit, err
		}
		switch word := strings.ToLower(line); {
		case word == "":
			continue
		case quitWords[word]:
			r.printf("Your progress is saved. Farewell.\n")
			return OutcomeQuit, r.save(ctx)
		case statusWords[word]:
			r.printf("%s\n", StatusPanel(r.Game.Player(), nil))
			continue
		}

		defeated, err := r.storyTurn(ctx, line)
		if err != nil {
			return OutcomeQuit, err
		}
		if defeated {
			r.printf("%s\n", styleAlert.Render("Game over."))
			return OutcomeDefeated, r.save(ctx)
		}
	}
}

// storyTurn narrates one line and runs any encounter it triggers.
func (r *Runner) storyTurn(ctx context.Context, line string) (bool, error) {
	g := r.Game
	g.Record("user", line)

	n, err := r.Teller.Tell(ctx, g.Player(), g.Memory(), g.RecentHistory())
	if err != nil {
		// The turn does not advance without a narration.
		r.Logger.Warn("story turn not narrated", zap.Error(err))
		r.printf("\n%s\n", styleSystem.Render(n.Text))
		return false, nil
	}
	res := g.ApplyNarration(n)
	r.printf("\n%s\n", styleStory.Render(n.Text))

	if res.LevelsGained > 0 {
		r.printf("%s\n", styleReward.Render(fmt.Sprintf("You reached level %d!", g.Player().Level)))
	}
	if res.ManaRegenerated {
		r.printf("%s\n", styleSystem.Render("[You feel your mana returning.]"))
	}
	for _, w := range res.Recharged {
		r.printf("%s\n", styleSystem.Render(fmt.Sprintf("[%s hums with renewed power.]", w)))
	}
	if res.SummarizeMemory {
		summary, err := r.Teller.Summarize(ctx, g.Memory(), g.RecentHistory())
		if err != nil {
			r.Logger.Warn("memory summary failed", zap.Error(err))
		}
		g.SetMemory(summary)
	}

	defeated := false
	if res.Trigger != session.TriggerNone {
		defeated, err = r.encounter(ctx, res.Trigger)
		if err != nil {
			return false, err
		}
	}
	return defeated, r.save(ctx)
}

// encounter runs combat to a terminal state.
func (r *Runner) encounter(ctx context.Context, trigger session.Trigger) (bool, error) {
	if trigger == session.TriggerAmbush {
		r.printf("\n%s\n", styleAlert.Render("You are ambushed!"))
	} else {
		r.printf("\n%s\n", styleAlert.Render("Combat has started!"))
	}

	fight, err := r.Game.BeginEncounter(r.Spawner, r.Engine, r.Deps)
	if err != nil {
		r.Logger.Warn("encounter could not start", zap.Error(err))
		r.printf("%s\n", styleSystem.Render("[The danger passes before it arrives.]"))
		return false, nil
	}
	snap := fight.Snapshot()
	r.printf("%s\n", StatusPanel(r.Game.Player(), &snap))

	for {
		line, err := r.prompt("Your action")
		if errors.Is(err, errInputClosed) {
			// Abandoning input mid-fight counts as fleeing.
			line = "run"
		} else if err != nil {
			return false, err
		}
		if statusWords[strings.ToLower(line)] {
			snap := fight.Snapshot()
			r.printf("%s\n", StatusPanel(r.Game.Player(), &snap))
			continue
		}

		in := r.classify(ctx, line)
		res, err := r.Game.Act(in)
		switch {
		case errors.Is(err, combat.ErrInvalidTarget):
			r.printf("%s\n", styleSystem.Render("[There is no enemy there.]"))
			continue
		case err != nil:
			return false, err
		}

		text, err := r.Narrator.NarrateRound(ctx, res)
		if err != nil {
			r.Logger.Warn("round narration failed", zap.Error(err))
			text = narration.RenderRound(res)
		}
		if strings.TrimSpace(text) != "" {
			r.printf("\n%s\n", styleStory.Render(text))
		}

		if res.State.Terminal() {
			return r.finish(res), nil
		}
		r.printf("%s\n", StatusPanel(r.Game.Player(), &res.Snapshot))
	}
}

func (r *Runner) finish(res combat.RoundResult) bool {
	switch res.State {
	case combat.StateVictory:
		r.printf("%s\n", styleReward.Render("Victory! You continue your journey..."))
	case combat.StateEscaped:
		r.printf("%s\n", styleSystem.Render("[You escaped.]"))
	case combat.StateDefeat:
		return true
	}
	return false
}

// classify maps a combat line to an intent, asking the model only when the
// keyword classifier is unsure.
func (r *Runner) classify(ctx context.Context, line string) combat.Intent {
	player := r.Game.Player()
	if in, ok := r.Classifier.Classify(line, player); ok {
		return in
	}
	if r.Intents == nil {
		return combat.Intent{Kind: combat.IntentAttack}
	}
	in, err := r.Intents.ClassifyIntent(ctx, line, r.knownSkills(player), r.carriedItems(player))
	if err != nil {
		r.Logger.Debug("intent model fell back to attack", zap.Error(err))
	}
	return in
}

func (r *Runner) knownSkills(p *character.Character) []*skill.Def {
	var out []*skill.Def
	for _, name := range p.Skills {
		if d := r.Deps.Skills.ByName(name); d != nil {
			out = append(out, d)
		}
	}
	return out
}

func (r *Runner) carriedItems(p *character.Character) []*inventory.ItemDef {
	var out []*inventory.ItemDef
	seen := make(map[string]bool)
	for _, name := range p.Inventory {
		d := r.Deps.Items.ByName(name)
		if d == nil || seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		out = append(out, d)
	}
	return out
}

func (r *Runner) save(ctx context.Context) error {
	if r.Saver == nil || r.Game.InCombat() {
		return nil
	}
	if err := r.Saver.Save(ctx, r.Game.Player(), r.Game.Progress()); err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

func (r *Runner) prompt(label string) (string, error) {
	r.printf("\n%s ", stylePrompt.Render(label+" >"))
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(r.in.Text()), nil
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
