// Package export appends financial summaries to a Google Sheets
// spreadsheet so users can keep a shareable monthly log outside the
// app. The exporter is optional; a nil client disables it.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/MHMB/pennywise-finance-app/internal/analytics"
)

type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsExporter builds a Sheets client from service account
// credentials. The credentials file falls back to
// GOOGLE_APPLICATION_CREDENTIALS when the explicit path is empty.
func NewSheetsExporter(ctx context.Context, spreadsheetID, sheetName, credentialsFile string) (*SheetsExporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Summaries"
	}
	if strings.TrimSpace(credentialsFile) == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if credentialsFile == "" {
		return nil, errors.New("missing service account credentials file")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsFile(credentialsFile),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendSummary logs one period summary as a row:
// timestamp, user, period, income, expenses, net, alert count.
func (c *SheetsExporter) AppendSummary(ctx context.Context, userID string, summary analytics.Summary, alertCount int) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		time.Now().UTC().Format(time.RFC3339),
		userID,
		string(summary.Period),
		summary.Totals.Income.StringFixed(2),
		summary.Totals.Expenses.StringFixed(2),
		summary.Totals.Net.StringFixed(2),
		alertCount,
	}
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append summary to sheet %s: %w", c.sheetName, err)
	}
	return nil
}
