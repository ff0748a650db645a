// Package importer turns raw CSV statement text into normalized
// transaction records: it sniffs the file format, parses rows
// independently, auto-categorizes descriptions and flags probable
// duplicates against already-persisted transactions.
package importer

import (
	"encoding/csv"
	"strings"
)

// Column roles the pipeline understands. Date, amount and description
// are required for an import to proceed; category is optional.
const (
	RoleDate        = "date"
	RoleAmount      = "amount"
	RoleDescription = "description"
	RoleCategory    = "category"
)

// roleCandidates lists acceptable header-name substrings per role.
// Matching is case-insensitive; for each role the first header column
// containing any candidate wins.
var roleCandidates = map[string][]string{
	RoleDate:        {"date", "transaction_date", "trans_date", "posted_date", "timestamp"},
	RoleAmount:      {"amount", "value", "sum", "total", "debit", "credit"},
	RoleDescription: {"description", "desc", "memo", "details", "narration", "reference"},
	RoleCategory:    {"category", "cat", "type", "classification"},
}

var requiredRoles = []string{RoleDate, RoleAmount, RoleDescription}

const sampleRowLimit = 5

// Format describes a sniffed CSV file: the delimiter, which header
// column fills each role, and a few leading rows for previewing.
type Format struct {
	Delimiter  rune
	Columns    map[string]int // role -> header column index
	Headers    []string
	SampleRows [][]string
}

// HasColumns reports whether any role was bound at all.
func (f Format) HasColumns() bool {
	return len(f.Columns) > 0
}

// MissingRoles lists required roles with no bound column.
func (f Format) MissingRoles() []string {
	var missing []string
	for _, role := range requiredRoles {
		if _, ok := f.Columns[role]; !ok {
			missing = append(missing, role)
		}
	}
	return missing
}

// FoundRoles lists bound roles in the fixed required-then-category order.
func (f Format) FoundRoles() []string {
	var found []string
	for _, role := range []string{RoleDate, RoleAmount, RoleDescription, RoleCategory} {
		if _, ok := f.Columns[role]; ok {
			found = append(found, role)
		}
	}
	return found
}

// DetectFormat sniffs delimiter and column roles from the header line.
//
// Delimiter rules, applied in order: comma by default; semicolon when
// the header contains ';' and no ','; tab whenever the header contains a
// tab character, overriding the semicolon rule.
func DetectFormat(content string) Format {
	f := Format{Delimiter: ',', Columns: map[string]int{}}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return f
	}
	header := trimmed
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		header = trimmed[:idx]
	}

	if strings.Contains(header, ";") && !strings.Contains(header, ",") {
		f.Delimiter = ';'
	}
	if strings.Contains(header, "\t") {
		f.Delimiter = '\t'
	}

	reader := csv.NewReader(strings.NewReader(trimmed))
	reader.Comma = f.Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return f
	}
	f.Headers = headers

	for _, role := range []string{RoleDate, RoleAmount, RoleDescription, RoleCategory} {
		for i, col := range headers {
			if headerMatches(col, roleCandidates[role]) {
				f.Columns[role] = i
				break
			}
		}
	}

	for len(f.SampleRows) < sampleRowLimit {
		row, err := reader.Read()
		if err != nil {
			break
		}
		f.SampleRows = append(f.SampleRows, row)
	}

	return f
}

func headerMatches(header string, candidates []string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, c := range candidates {
		if strings.Contains(h, c) {
			return true
		}
	}
	return false
}
