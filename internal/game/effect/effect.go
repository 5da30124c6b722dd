// Package effect defines the declarative units of mechanical impact attached
// to skills, items and enemy attacks.
package effect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/adventure/internal/game/dice"
)

// Kind discriminates what an Effect does.
type Kind string

// Effect kinds.
const (
	KindDamage Kind = "damage"
	KindHeal   Kind = "heal"
	KindBuff   Kind = "buff"
	KindDebuff Kind = "debuff"
)

var validKinds = map[Kind]bool{
	KindDamage: true,
	KindHeal:   true,
	KindBuff:   true,
	KindDebuff: true,
}

// Evaluator rolls dice expressions. *dice.Roller satisfies it.
type Evaluator interface {
	Evaluate(expr string) dice.RollResult
}

// Amount is either a dice expression ("2d6+1") or a fixed integer ("10").
type Amount string

// UnmarshalYAML accepts any scalar so content may write `value: 10` or `value: 1d8`.
func (a *Amount) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("effect amount must be a scalar at line %d", n.Line)
	}
	*a = Amount(strings.TrimSpace(n.Value))
	return nil
}

// Fixed returns the integer value of a fixed amount.
func (a Amount) Fixed() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(a)))
	return n, err == nil
}

// Valid reports whether a is a fixed integer or a dice expression.
func (a Amount) Valid() bool {
	if _, ok := a.Fixed(); ok {
		return true
	}
	return dice.IsExpression(string(a))
}

// Roll evaluates the amount. A fixed integer produces a diceless result whose
// modifier is the value; anything unparseable yields a malformed zero result.
func (a Amount) Roll(ev Evaluator) dice.RollResult {
	if n, ok := a.Fixed(); ok {
		return dice.RollResult{Expression: string(a), Dice: []int{}, Modifier: n}
	}
	return ev.Evaluate(string(a))
}

// Effect is an immutable catalog entry describing one mechanical outcome.
type Effect struct {
	Kind     Kind   `yaml:"kind" json:"kind"`
	Value    Amount `yaml:"value" json:"value"`
	Duration Amount `yaml:"duration,omitempty" json:"duration,omitempty"`
	ManaCost int    `yaml:"mana_cost,omitempty" json:"mana_cost,omitempty"`
}

// Validate checks that e satisfies its invariants.
//
// Postcondition: returns nil iff kind is known, value is a dice expression or
// integer, duration (when present) is too, and mana cost is non-negative.
func (e Effect) Validate() error {
	var errs []error
	if !validKinds[e.Kind] {
		errs = append(errs, fmt.Errorf("kind must be one of damage, heal, buff, debuff; got %q", e.Kind))
	}
	if !e.Value.Valid() {
		errs = append(errs, fmt.Errorf("value %q is neither a dice expression nor an integer", e.Value))
	}
	if e.Duration != "" && !e.Duration.Valid() {
		errs = append(errs, fmt.Errorf("duration %q is neither a dice expression nor an integer", e.Duration))
	}
	if e.ManaCost < 0 {
		errs = append(errs, errors.New("mana_cost must be >= 0"))
	}
	return errors.Join(errs...)
}

// ValidateAll validates every effect, prefixing each error with its index.
func ValidateAll(effects []Effect) error {
	var errs []error
	for i, e := range effects {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("effect %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// ManaCost sums the mana cost of effects.
func ManaCost(effects []Effect) int {
	total := 0
	for _, e := range effects {
		total += e.ManaCost
	}
	return total
}

// OfKind returns the effects of kind k in their declared order.
func OfKind(effects []Effect, k Kind) []Effect {
	var out []Effect
	for _, e := range effects {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}
