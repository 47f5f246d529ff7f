// Package core holds the ledger domain model and the pure computations over
// it: equal splitting with exact reconciliation, balance folding, and member
// name resolution. Nothing in this package performs I/O or mutates its
// inputs.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// The persisted data file stores amounts as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount converts a decimal string into a positive 2-decimal amount.
// It accepts both dot and comma separators; the third decimal digit, if
// present, is rounded half-up.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrInvalidInput)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: malformed amount %q", ErrInvalidInput, s)
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return d, nil
}
