// Package dice provides dice-expression evaluation and the injectable
// randomness used by every combat resolution step.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice expression evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier; a Malformed result totals 0.
type RollResult struct {
	Expression string `json:"expression"`
	Dice       []int  `json:"dice"`
	Modifier   int    `json:"modifier"`
	// Malformed marks an expression that could not be parsed. It evaluates to zero.
	Malformed bool `json:"malformed,omitempty"`
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
//
// Malformed results render as "<expr> → malformed = 0".
//
// Precondition: r.Expression is non-empty unless r.Malformed is set.
func (r RollResult) String() string {
	if r.Malformed {
		return fmt.Sprintf("%q → malformed = 0", r.Expression)
	}
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for dice rolls, spawn selection and enemy choices.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
