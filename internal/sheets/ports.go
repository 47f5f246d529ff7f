// Package sheets defines the export port the worker writes balances through.
package sheets

import (
	"context"

	"pache/internal/core"
)

// BalanceExporter publishes a pache's computed balances to an external
// sheet. Exports are full replacements keyed by pache name.
type BalanceExporter interface {
	ExportBalances(ctx context.Context, pacheName string, balances []core.CalculatedBalance) error
}
