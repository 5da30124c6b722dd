package intent

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
)

// MatchThreshold is the minimum share of a skill or item name's words that
// must appear in the input for it to be selected.
const MatchThreshold = 0.3

// Tokens lowercases line and splits it into words, dropping punctuation.
//
// Postcondition: Returns nil for blank input.
func Tokens(line string) []string {
	return strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Classifier resolves free text against the vocabulary and the actor's
// known skills and carried items.
type Classifier struct {
	reg    *Registry
	skills combat.SkillCatalog
	items  combat.ItemCatalog
}

// NewClassifier creates a Classifier.
//
// Precondition: reg, skills and items must be non-nil.
func NewClassifier(reg *Registry, skills combat.SkillCatalog, items combat.ItemCatalog) *Classifier {
	return &Classifier{reg: reg, skills: skills, items: items}
}

// Classify maps line to an intent for actor.
//
// Matching runs in order: an explicit "target N" (1-based), the best
// matching known skill, the best matching carried item other than the
// equipped weapon, then attack and run keywords. An attack keyword
// followed by a number also selects that target.
//
// Postcondition: ok is false when nothing matched; TargetIndex, when set, is zero-based.
func (c *Classifier) Classify(line string, actor *character.Character) (combat.Intent, bool) {
	words := Tokens(line)
	if len(words) == 0 {
		return combat.Intent{}, false
	}

	kinds := make([]combat.IntentKind, len(words))
	for i, w := range words {
		if kw, ok := c.reg.Resolve(w); ok {
			kinds[i] = kw.Kind
		}
	}

	for i, k := range kinds {
		if k != combat.IntentSwitchTarget {
			continue
		}
		if idx, ok := numberAfter(words, i); ok {
			return combat.Intent{Kind: combat.IntentSwitchTarget, TargetIndex: combat.Target(idx)}, true
		}
	}

	if name, ok := c.bestSkill(words, actor); ok {
		return combat.Intent{Kind: combat.IntentUseSkill, Skill: name}, true
	}
	if name, ok := c.bestItem(words, actor); ok {
		return combat.Intent{Kind: combat.IntentUseItem, Item: name}, true
	}

	for i, k := range kinds {
		if k != combat.IntentAttack {
			continue
		}
		in := combat.Intent{Kind: combat.IntentAttack}
		if idx, ok := numberAfter(words, i); ok {
			in.TargetIndex = combat.Target(idx)
		}
		return in, true
	}
	for _, k := range kinds {
		if k == combat.IntentRun {
			return combat.Intent{Kind: combat.IntentRun}, true
		}
	}
	return combat.Intent{}, false
}

func (c *Classifier) bestSkill(words []string, actor *character.Character) (string, bool) {
	var best string
	var score float64
	for _, name := range actor.Skills {
		def := c.skills.ByName(name)
		if def == nil {
			continue
		}
		if s := Similarity(words, def.Name); s > score {
			best, score = def.Name, s
		}
	}
	return best, score > MatchThreshold
}

func (c *Classifier) bestItem(words []string, actor *character.Character) (string, bool) {
	var best string
	var score float64
	for _, name := range actor.Inventory {
		if strings.EqualFold(name, actor.EquippedWeapon) {
			continue
		}
		def := c.items.ByName(name)
		if def == nil {
			continue
		}
		if s := Similarity(words, def.Name); s > score {
			best, score = def.Name, s
		}
	}
	return best, score > MatchThreshold
}

// Similarity returns the share of name's words present in words, in [0, 1].
func Similarity(words []string, name string) float64 {
	target := Tokens(name)
	if len(target) == 0 {
		return 0
	}
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}
	hits := 0
	for _, t := range target {
		if present[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(target))
}

// numberAfter finds the first positive integer after words[i] and converts it to a zero-based index.
func numberAfter(words []string, i int) (int, bool) {
	for _, w := range words[i+1:] {
		n, err := strconv.Atoi(w)
		if err == nil && n >= 1 {
			return n - 1, true
		}
	}
	return 0, false
}
