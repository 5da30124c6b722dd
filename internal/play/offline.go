package play

import (
	"context"
	"fmt"
	"strings"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/session"
)

// trouble words make the offline storyteller request an encounter.
var troubleWords = []string{"fight", "hunt", "ambush", "attack", "trouble"}

// Offline is a Storyteller that needs no language model. It echoes the
// player's action, moves the player when they "go to" a place, and starts an
// encounter when they look for a fight. Random ambushes still apply.
type Offline struct{}

// Tell implements Storyteller.
func (Offline) Tell(_ context.Context, player *character.Character, _ string, history []session.Message) (session.Narration, error) {
	action := lastUserLine(history)
	if action == "" {
		return session.Narration{Text: fmt.Sprintf("%s waits in %s.", player.Name, player.Location)}, nil
	}
	n := session.Narration{Text: fmt.Sprintf("%s: %s.", player.Name, strings.TrimSuffix(action, "."))}
	lower := strings.ToLower(action)
	if i := strings.Index(lower, "go to "); i >= 0 {
		if dest := strings.TrimSpace(strings.TrimSuffix(action[i+len("go to "):], ".")); dest != "" {
			n.Location = dest
			n.Text = fmt.Sprintf("%s travels to %s.", player.Name, dest)
		}
	}
	for _, w := range troubleWords {
		if strings.Contains(lower, w) {
			n.Encounter = true
			break
		}
	}
	return n, nil
}

// Summarize implements Storyteller by appending the latest action to memory.
func (Offline) Summarize(_ context.Context, memory string, recent []session.Message) (string, error) {
	last := lastUserLine(recent)
	if last == "" {
		return memory, nil
	}
	return fmt.Sprintf("%s Most recently: %s.", memory, strings.TrimSuffix(last, ".")), nil
}

func lastUserLine(history []session.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return strings.TrimSpace(history[i].Content)
		}
	}
	return ""
}
