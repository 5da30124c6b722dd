package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse limits. Larger expressions are rejected as malformed so a bad
// catalog entry cannot allocate an unbounded dice slice.
const (
	MaxCount    = 100
	MaxSides    = 1000
	MaxModifier = 10000
)

// Expression is a parsed NdM[+K|-K] dice expression.
//
// Invariant: 1 <= Count <= MaxCount, 1 <= Sides <= MaxSides and
// |Modifier| <= MaxModifier after a successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // signed flat modifier
}

// Parse parses a dice expression of the form NdM, NdM+K or NdM-K.
// Whitespace is ignored and the 'd' separator is case-insensitive.
//
// Precondition: none; any string is accepted.
// Postcondition: returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.Join(strings.Fields(expr), ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	dIdx := strings.IndexByte(s, 'd')
	if dIdx <= 0 {
		return Expression{}, fmt.Errorf("dice: expression %q must have the form NdM[+K|-K]", expr)
	}
	count, err := parseNatural(s[:dIdx], MaxCount)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", expr, err)
	}

	rest := s[dIdx+1:]
	sidesStr, modStr := rest, ""
	if i := strings.IndexAny(rest, "+-"); i >= 0 {
		sidesStr, modStr = rest[:i], rest[i:]
	}
	sides, err := parseNatural(sidesStr, MaxSides)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", expr, err)
	}

	modifier := 0
	if modStr != "" {
		digits := modStr[1:]
		if digits == "" || strings.IndexFunc(digits, notDigit) >= 0 {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q", expr)
		}
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
		if modifier > MaxModifier || modifier < -MaxModifier {
			return Expression{}, fmt.Errorf("dice: modifier in %q exceeds %d", expr, MaxModifier)
		}
	}

	return Expression{Raw: expr, Count: count, Sides: sides, Modifier: modifier}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// IsExpression reports whether s parses as a dice expression.
func IsExpression(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func parseNatural(s string, limit int) (int, error) {
	if s == "" || strings.IndexFunc(s, notDigit) >= 0 {
		return 0, fmt.Errorf("%q is not a positive integer", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%q must be >= 1", s)
	}
	if n > limit {
		return 0, fmt.Errorf("%q exceeds %d", s, limit)
	}
	return n, nil
}

func notDigit(r rune) bool { return r < '0' || r > '9' }
