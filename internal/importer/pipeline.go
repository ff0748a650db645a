package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MHMB/pennywise-finance-app/internal/categorize"
	"github.com/MHMB/pennywise-finance-app/internal/core"
)

// Result is the outcome of processing one CSV file. Rows fail
// independently: a bad row lands in Errors and the rest still import.
type Result struct {
	Success       bool
	Transactions  []core.Transaction
	Errors        []string
	TotalRows     int
	ProcessedRows int
}

// Processor runs the full CSV import pipeline: detect, parse row by
// row, categorize.
type Processor struct {
	logger *slog.Logger
}

func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger}
}

// Process parses CSV content into transactions owned by userID.
//
// Fatal conditions (unusable header) produce Success == false with a
// single error. Row-level failures are recoverable: they are reported
// as "Row N: ..." with 1-based data-row numbering, never stop the
// batch, and never flip Success; a structurally valid file succeeds
// even when every row fails.
func (p *Processor) Process(content, userID string) Result {
	var res Result

	format := DetectFormat(content)
	if !format.HasColumns() {
		res.Errors = append(res.Errors, "could not detect CSV format: no recognizable columns in header")
		return res
	}
	if missing := format.MissingRoles(); len(missing) > 0 {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"missing required columns: %s (found: %s)",
			strings.Join(missing, ", "), strings.Join(format.FoundRoles(), ", ")))
		return res
	}

	reader := csv.NewReader(strings.NewReader(strings.TrimSpace(content)))
	reader.Comma = format.Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("could not read CSV header: %v", err))
		return res
	}

	// Detection and required-role checks passed; row failures below are
	// captured as data, not as batch failure.
	res.Success = true

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowNum++
			res.TotalRows++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: malformed row: %v", rowNum, err))
			continue
		}
		if isBlankRow(row) {
			continue
		}
		rowNum++
		res.TotalRows++

		tx, rowErr := p.parseRow(row, format, userID)
		if rowErr != "" {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %s", rowNum, rowErr))
			continue
		}
		res.Transactions = append(res.Transactions, tx)
		res.ProcessedRows++
	}

	p.logger.Info("csv processed",
		"total_rows", res.TotalRows,
		"processed_rows", res.ProcessedRows,
		"errors", len(res.Errors))
	return res
}

func (p *Processor) parseRow(row []string, format Format, userID string) (core.Transaction, string) {
	dateCell, ok := cell(row, format.Columns[RoleDate])
	if !ok {
		return core.Transaction{}, "missing date column value"
	}
	date, err := core.ParseDate(dateCell)
	if err != nil {
		return core.Transaction{}, "invalid date format"
	}

	amountCell, ok := cell(row, format.Columns[RoleAmount])
	if !ok {
		return core.Transaction{}, "missing amount column value"
	}
	signed, err := core.ParseAmount(amountCell)
	if err != nil {
		return core.Transaction{}, "invalid amount format"
	}
	if signed.IsZero() {
		// Stored amounts must be strictly positive, so a parsed zero
		// cannot become a transaction in either direction.
		return core.Transaction{}, "amount must be non-zero"
	}

	descCell, _ := cell(row, format.Columns[RoleDescription])
	description := strings.TrimSpace(descCell)
	if description == "" {
		return core.Transaction{}, "missing description"
	}

	category := ""
	if idx, bound := format.Columns[RoleCategory]; bound {
		if c, ok := cell(row, idx); ok {
			category = strings.TrimSpace(c)
		}
	}
	if category == "" {
		category = categorize.Categorize(description, signed)
	}

	return core.Transaction{
		UserID:      userID,
		Date:        date,
		Amount:      signed.Abs(),
		Category:    category,
		Description: description,
		IsIncome:    signed.IsPositive(),
	}, ""
}

func cell(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[idx])
	return v, v != ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
