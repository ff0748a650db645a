// Package worker reacts to import-completed events: it re-evaluates the
// user's budgets, logs any threshold breaches and optionally appends a
// summary row to Google Sheets.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MHMB/pennywise-finance-app/internal/amqp"
	"github.com/MHMB/pennywise-finance-app/internal/analytics"
	"github.com/MHMB/pennywise-finance-app/internal/core"
)

// SummaryExporter mirrors the Sheets exporter. A nil exporter disables
// the export step without changing alert evaluation.
type SummaryExporter interface {
	AppendSummary(ctx context.Context, userID string, summary analytics.Summary, alertCount int) error
}

type AlertWorker struct {
	engine   *analytics.Engine
	exporter SummaryExporter
	logger   *slog.Logger
}

func NewAlertWorker(engine *analytics.Engine, exporter SummaryExporter, logger *slog.Logger) *AlertWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertWorker{engine: engine, exporter: exporter, logger: logger}
}

// HandleImportCompleted processes a single import-completed event.
func (w *AlertWorker) HandleImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
	w.logger.InfoContext(ctx, "processing import event",
		"user_id", msg.UserID,
		"processed_rows", msg.ProcessedRows,
		"skipped", msg.Skipped)

	alerts, err := w.engine.Alerts(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("evaluate alerts: %w", err)
	}

	for _, alert := range alerts {
		w.logger.WarnContext(ctx, "budget alert",
			"user_id", msg.UserID,
			"category", alert.Category,
			"alert_type", alert.AlertType,
			"percentage_used", alert.PercentUsed,
			"message", alert.Message)
	}
	if len(alerts) == 0 {
		w.logger.InfoContext(ctx, "no budget alerts after import", "user_id", msg.UserID)
	}

	if err := w.exportSummary(ctx, msg.UserID, len(alerts)); err != nil {
		// The import event is already handled; the export is advisory.
		w.logger.WarnContext(ctx, "summary export failed", "error", err, "user_id", msg.UserID)
	}
	return nil
}

// Run consumes import events until the context is cancelled.
func (w *AlertWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeImportCompleted(ctx, func(msg *amqp.ImportCompletedMessage) error {
		return w.HandleImportCompleted(ctx, msg)
	})
}

func (w *AlertWorker) exportSummary(ctx context.Context, userID string, alertCount int) error {
	if w.exporter == nil {
		return nil
	}

	// Zero anchor means the current window.
	summary, err := w.engine.Summary(ctx, userID, core.Monthly, time.Time{})
	if err != nil {
		return fmt.Errorf("compute summary: %w", err)
	}
	return w.exporter.AppendSummary(ctx, userID, summary, alertCount)
}
