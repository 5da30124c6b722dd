package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// Every expression roll is logged at debug level; malformed expressions at warn.
//
// Roller itself satisfies Source so it can be handed to anything that only
// needs raw random integers.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn delegates to the underlying Source.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}

var d20 = MustParse("1d20")

// D20 rolls a single twenty-sided die.
//
// Postcondition: result in [1, 20].
func (r *Roller) D20() int {
	v := Roll(d20, r.src).Total()
	r.logger.Debug("d20 roll", zap.Int("roll", v))
	return v
}

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Evaluate rolls expr, logging a malformed expression as an explicit zero outcome.
//
// Postcondition: never returns an error; malformed input totals 0.
func (r *Roller) Evaluate(expr string) RollResult {
	e, err := Parse(expr)
	if err != nil {
		r.logger.Warn("malformed dice expression evaluated as zero",
			zap.String("expression", expr),
			zap.Error(err),
		)
		return RollResult{Expression: expr, Malformed: true}
	}
	return r.Roll(e)
}
