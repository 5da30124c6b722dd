// Package intent turns free-text combat input into engine intents using
// keyword and catalog matching. Input it cannot classify is left to an
// external classifier.
package intent

import (
	"fmt"

	"github.com/cory-johannsen/adventure/internal/game/combat"
)

// Keyword maps a trigger word and its aliases to an intent kind.
type Keyword struct {
	// Word is the canonical trigger word.
	Word string
	// Aliases are alternate trigger words.
	Aliases []string
	Kind    combat.IntentKind
	Help    string
}

// BuiltinKeywords returns the standard combat vocabulary.
func BuiltinKeywords() []Keyword {
	return []Keyword{
		{Word: "attack", Aliases: []string{"hit", "strike", "slash", "shoot", "swing", "bash", "stab", "melee", "fight"}, Kind: combat.IntentAttack, Help: "Attack the current target with your weapon"},
		{Word: "sword", Aliases: []string{"bow", "arrow", "blade", "axe"}, Kind: combat.IntentAttack, Help: "Weapon words imply a weapon attack"},
		{Word: "run", Aliases: []string{"flee", "escape", "retreat", "withdraw", "leave"}, Kind: combat.IntentRun, Help: "Try to escape the fight"},
		{Word: "target", Aliases: []string{"switch", "focus"}, Kind: combat.IntentSwitchTarget, Help: "Switch target: target N (1-based)"},
	}
}

// Registry maps trigger words to keywords.
type Registry struct {
	keywords map[string]*Keyword
	aliases  map[string]string
}

// NewRegistry creates a Registry from kws.
//
// Precondition: No two keywords may share a word or alias.
// Postcondition: Returns a Registry or an error on word/alias collisions.
func NewRegistry(kws []Keyword) (*Registry, error) {
	r := &Registry{
		keywords: make(map[string]*Keyword, len(kws)),
		aliases:  make(map[string]string),
	}
	for i := range kws {
		kw := &kws[i]
		if _, exists := r.keywords[kw.Word]; exists {
			return nil, fmt.Errorf("duplicate keyword: %q", kw.Word)
		}
		if _, exists := r.aliases[kw.Word]; exists {
			return nil, fmt.Errorf("keyword %q conflicts with an existing alias", kw.Word)
		}
		r.keywords[kw.Word] = kw

		for _, alias := range kw.Aliases {
			if _, exists := r.keywords[alias]; exists {
				return nil, fmt.Errorf("alias %q conflicts with keyword %q", alias, alias)
			}
			if existing, exists := r.aliases[alias]; exists {
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, existing, kw.Word)
			}
			r.aliases[alias] = kw.Word
		}
	}
	return r, nil
}

// DefaultRegistry creates a Registry with the builtin vocabulary.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinKeywords())
	if err != nil {
		panic(fmt.Sprintf("building default keyword registry: %v", err))
	}
	return r
}

// Resolve looks up a word or alias.
//
// Postcondition: Returns (keyword, true) if found, or (nil, false).
func (r *Registry) Resolve(word string) (*Keyword, bool) {
	if kw, ok := r.keywords[word]; ok {
		return kw, true
	}
	if canonical, ok := r.aliases[word]; ok {
		return r.keywords[canonical], true
	}
	return nil, false
}

// Keywords returns all registered keywords in no particular order.
func (r *Registry) Keywords() []*Keyword {
	out := make([]*Keyword, 0, len(r.keywords))
	for _, kw := range r.keywords {
		out = append(out, kw)
	}
	return out
}
