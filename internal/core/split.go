package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	splitTolerance    = decimal.New(1, -3) // 0.001
	residualTolerance = decimal.New(1, -4) // 0.0001
)

// SplitEqually divides total across participantIDs so that the 2-decimal
// shares sum back to total exactly. The output has one entry per input id,
// in input order; duplicate ids each get their own share. When rounding
// leaves a remainder above the tolerance it is redistributed one bounded
// step at a time, and whatever is left after that lands on the first
// participant. The first-participant tie-break is observable in persisted
// data and must not change.
func SplitEqually(total decimal.Decimal, participantIDs []string) ([]ExpenseShare, error) {
	if len(participantIDs) == 0 {
		return nil, fmt.Errorf("%w: no participants", ErrInvalidInput)
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	n := decimal.NewFromInt(int64(len(participantIDs)))
	equal := total.Div(n).Round(2)

	shares := make([]ExpenseShare, len(participantIDs))
	sum := decimal.Zero
	for i, id := range participantIDs {
		shares[i] = ExpenseShare{MemberID: id, Amount: equal}
		sum = sum.Add(equal)
	}

	remainder := total.Sub(sum)
	if remainder.Abs().GreaterThan(splitTolerance) {
		adjustment := remainder.Div(n).Round(2)
		for i := range shares {
			if remainder.IsZero() {
				break
			}
			step := decimal.Min(remainder.Abs(), adjustment.Abs())
			if remainder.IsNegative() {
				step = step.Neg()
			}
			shares[i].Amount = shares[i].Amount.Add(step).Round(2)
			remainder = remainder.Sub(step)
		}
	}
	if remainder.Abs().GreaterThan(residualTolerance) {
		shares[0].Amount = shares[0].Amount.Add(remainder).Round(2)
	}

	return shares, nil
}
