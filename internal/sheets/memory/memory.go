// Package memory is an in-process BalanceExporter used by tests.
package memory

import (
	"context"
	"sync"

	"pache/internal/core"
	ports "pache/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	exports map[string][]core.CalculatedBalance
}

var _ ports.BalanceExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{exports: make(map[string][]core.CalculatedBalance)}
}

func (e *Exporter) ExportBalances(_ context.Context, pacheName string, balances []core.CalculatedBalance) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exports[pacheName] = balances
	return nil
}

// Exported returns the last export recorded for pacheName.
func (e *Exporter) Exported(pacheName string) ([]core.CalculatedBalance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.exports[pacheName]
	return b, ok
}
