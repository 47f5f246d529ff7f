// Package worker consumes change events and mirrors computed balances to an
// external sheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"pache/internal/amqp"
	"pache/internal/core"
	"pache/internal/sheets"
	"pache/internal/storage"
)

// ExportWorker recomputes balances from the current snapshot on every change
// event. Events only carry the pache id, so replays and out-of-order
// delivery converge on the same result.
type ExportWorker struct {
	store    storage.Store
	exporter sheets.BalanceExporter
	lang     language.Tag
}

func NewExportWorker(store storage.Store, exporter sheets.BalanceExporter, lang language.Tag) *ExportWorker {
	return &ExportWorker{store: store, exporter: exporter, lang: lang}
}

// HandleChangeMessage processes a single change event.
func (w *ExportWorker) HandleChangeMessage(ctx context.Context, msg *amqp.PacheChangedMessage) error {
	slog.InfoContext(ctx, "Processing change event",
		"pache_id", msg.PacheID,
		"op", msg.Op)

	p, err := w.store.GetPache(ctx, msg.PacheID)
	if errors.Is(err, core.ErrNotFound) {
		// The pache was deleted after the event was published. Nothing left
		// to export.
		slog.InfoContext(ctx, "Pache no longer exists, skipping export", "pache_id", msg.PacheID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get pache from storage: %w", err)
	}

	balances := core.CalculateBalances(p, w.lang)
	if err := w.exporter.ExportBalances(ctx, p.Name, balances); err != nil {
		return fmt.Errorf("export balances: %w", err)
	}

	slog.InfoContext(ctx, "Exported balances",
		"pache_id", p.ID,
		"pache", p.Name,
		"members", len(balances))
	return nil
}

// ExportAll recomputes every pache once. Used at worker startup to recover
// from missed events.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	paches, err := w.store.ListPaches(ctx)
	if err != nil {
		return fmt.Errorf("list paches for startup export: %w", err)
	}

	exported := 0
	for _, p := range paches {
		balances := core.CalculateBalances(p, w.lang)
		if err := w.exporter.ExportBalances(ctx, p.Name, balances); err != nil {
			slog.ErrorContext(ctx, "Failed to export balances during startup",
				"pache_id", p.ID,
				"error", err)
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(paches),
		"exported", exported)
	return nil
}
