package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnparseableAmount is returned for empty input or input with no
// recognizable numeric content. Callers turn it into a row-level error;
// it is never fatal for a batch.
var ErrUnparseableAmount = errors.New("unparseable amount")

// ParseAmount converts free-form monetary text to an exact decimal.
//
// Separator disambiguation:
//   - both ',' and '.' present: whichever appears later is the decimal
//     point, the other is a thousands separator and is dropped
//     (1,234.56 and 1.234,56 both yield 1234.56)
//   - only ',' present: a single comma followed by at most two digits is
//     a decimal point; otherwise all commas are thousands separators
//   - only '.' or neither: taken as-is
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrUnparseableAmount
	}

	// Drop currency symbols, spaces and any other decoration.
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Decimal{}, ErrUnparseableAmount
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// European style: 1.234,56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			// US style: 1,234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			// Decimal comma: 12,34
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			// Thousands separators: 1,234,567
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, ErrUnparseableAmount
	}
	return d, nil
}
