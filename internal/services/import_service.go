// Package services orchestrates multi-step operations that cross the
// importer, the store and the event bus.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MHMB/pennywise-finance-app/internal/amqp"
	"github.com/MHMB/pennywise-finance-app/internal/core"
	"github.com/MHMB/pennywise-finance-app/internal/importer"
)

// TransactionStore is the slice of the repository the import flow
// writes through.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	FindPotentialDuplicates(ctx context.Context, userID string, amount decimal.Decimal, descPrefix string, date time.Time, toleranceDays int) ([]core.Transaction, error)
}

// EventPublisher announces finished imports. A nil publisher disables
// events without changing the import flow.
type EventPublisher interface {
	PublishImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error
}

type ImportService struct {
	store          TransactionStore
	processor      *importer.Processor
	publisher      EventPublisher
	skipDuplicates bool
	logger         *slog.Logger
}

func NewImportService(store TransactionStore, publisher EventPublisher, skipDuplicates bool, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		store:          store,
		processor:      importer.NewProcessor(logger),
		publisher:      publisher,
		skipDuplicates: skipDuplicates,
		logger:         logger,
	}
}

// ImportOutcome reports one finished import batch.
type ImportOutcome struct {
	Success           bool               `json:"success"`
	Imported          []core.Transaction `json:"imported"`
	SkippedDuplicates int                `json:"skipped_duplicates"`
	Errors            []string           `json:"errors"`
	TotalRows         int                `json:"total_rows"`
	ProcessedRows     int                `json:"processed_rows"`
}

// ImportCSV runs the full import flow: parse the file, drop probable
// duplicates of already-stored transactions (and of earlier rows in
// the same batch), persist the rest, then publish a completion event
// best-effort.
func (s *ImportService) ImportCSV(ctx context.Context, userID, content string) (ImportOutcome, error) {
	res := s.processor.Process(content, userID)

	outcome := ImportOutcome{
		Errors:        res.Errors,
		TotalRows:     res.TotalRows,
		ProcessedRows: res.ProcessedRows,
	}
	if !res.Success {
		return outcome, nil
	}

	var accepted []core.Transaction
	for _, tx := range res.Transactions {
		if s.skipDuplicates {
			dupe, err := s.isDuplicate(ctx, tx, accepted)
			if err != nil {
				return outcome, fmt.Errorf("duplicate check: %w", err)
			}
			if dupe {
				outcome.SkippedDuplicates++
				continue
			}
		}

		created, err := s.store.CreateTransaction(ctx, tx)
		if err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("save %q: %v", tx.Description, err))
			continue
		}
		accepted = append(accepted, created)
	}

	// The batch was structurally sound; per-row failures above are data,
	// not batch failure.
	outcome.Imported = accepted
	outcome.Success = true

	s.logger.InfoContext(ctx, "import finished",
		"user_id", userID,
		"total_rows", outcome.TotalRows,
		"imported", len(accepted),
		"skipped_duplicates", outcome.SkippedDuplicates,
		"errors", len(outcome.Errors))

	s.publishCompleted(ctx, userID, outcome)
	return outcome, nil
}

// CheckDuplicate exposes the duplicate predicate for a single
// candidate against the store only. A non-positive toleranceDays
// falls back to the default one-day window.
func (s *ImportService) CheckDuplicate(ctx context.Context, tx core.Transaction, toleranceDays int) ([]core.Transaction, error) {
	if toleranceDays <= 0 {
		toleranceDays = importer.DefaultToleranceDays
	}

	near, err := s.store.FindPotentialDuplicates(ctx, tx.UserID, tx.Amount,
		importer.Prefix(tx.Description), tx.Date, toleranceDays)
	if err != nil {
		return nil, fmt.Errorf("find potential duplicates: %w", err)
	}

	var matches []core.Transaction
	for _, existing := range near {
		if importer.IsLikelyDuplicate(tx, existing, toleranceDays) {
			matches = append(matches, existing)
		}
	}
	return matches, nil
}

func (s *ImportService) isDuplicate(ctx context.Context, tx core.Transaction, batch []core.Transaction) (bool, error) {
	stored, err := s.CheckDuplicate(ctx, tx, importer.DefaultToleranceDays)
	if err != nil {
		return false, err
	}
	if len(stored) > 0 {
		return true, nil
	}
	for _, earlier := range batch {
		if importer.IsLikelyDuplicate(tx, earlier, importer.DefaultToleranceDays) {
			return true, nil
		}
	}
	return false, nil
}

func (s *ImportService) publishCompleted(ctx context.Context, userID string, outcome ImportOutcome) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewImportCompletedMessage(userID,
		outcome.TotalRows, outcome.ProcessedRows, outcome.SkippedDuplicates, len(outcome.Errors))
	if err := s.publisher.PublishImportCompleted(ctx, msg); err != nil {
		// Import already succeeded; the event is advisory.
		s.logger.WarnContext(ctx, "publish import event failed", "error", err, "user_id", userID)
	}
}
