package importer

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MHMB/pennywise-finance-app/internal/core"
)

// DescriptionPrefixLen bounds how much of a description participates in
// duplicate matching.
const DescriptionPrefixLen = 20

// DefaultToleranceDays is the date window used when callers do not
// choose one.
const DefaultToleranceDays = 1

var amountTolerance = decimal.NewFromFloat(0.01) // 1%

// ExistingLookup narrows stored transactions to plausible duplicate
// matches for one candidate. The store applies the same tolerance and
// prefix rules in SQL; IsLikelyDuplicate re-checks each hit exactly.
type ExistingLookup interface {
	FindPotentialDuplicates(ctx context.Context, userID string, amount decimal.Decimal, descPrefix string, date time.Time, toleranceDays int) ([]core.Transaction, error)
}

// IsLikelyDuplicate reports whether existing probably records the same
// real-world event as candidate: amount within 1% of the candidate's,
// description containing the candidate's prefix (case-sensitive) and
// dates at most toleranceDays apart.
func IsLikelyDuplicate(candidate, existing core.Transaction, toleranceDays int) bool {
	diff := candidate.Amount.Sub(existing.Amount).Abs()
	if diff.GreaterThan(candidate.Amount.Mul(amountTolerance)) {
		return false
	}
	if !strings.Contains(existing.Description, Prefix(candidate.Description)) {
		return false
	}
	return daysApart(candidate.Date, existing.Date) <= toleranceDays
}

// Prefix returns the leading DescriptionPrefixLen characters of s.
func Prefix(s string) string {
	r := []rune(s)
	if len(r) <= DescriptionPrefixLen {
		return s
	}
	return string(r[:DescriptionPrefixLen])
}

// FindDuplicates partitions candidates into fresh and duplicate sets.
// A candidate is a duplicate when it matches either a stored
// transaction or an earlier candidate already accepted in this batch.
func FindDuplicates(candidates, existing []core.Transaction, toleranceDays int) (fresh, dupes []core.Transaction) {
	accepted := make([]core.Transaction, 0, len(candidates))
	for _, c := range candidates {
		if matchesAny(c, existing, toleranceDays) || matchesAny(c, accepted, toleranceDays) {
			dupes = append(dupes, c)
			continue
		}
		accepted = append(accepted, c)
		fresh = append(fresh, c)
	}
	return fresh, dupes
}

func matchesAny(c core.Transaction, against []core.Transaction, toleranceDays int) bool {
	for _, e := range against {
		if IsLikelyDuplicate(c, e, toleranceDays) {
			return true
		}
	}
	return false
}

func daysApart(a, b time.Time) int {
	d := int(core.Day(a).Sub(core.Day(b)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
