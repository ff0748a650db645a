// Package categorize assigns categories to transactions from description
// keywords. Matching is an ordered scan: the rule table's declaration
// order decides ties, so the order below is a behavioral contract.
package categorize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Uncategorized is returned when no keyword matches.
const Uncategorized = "Uncategorized"

// Income is returned for positive amounts whose description matches an
// income keyword. Income keywords are never applied to expenses.
const Income = "Income"

// Rule maps one category to its case-insensitive substring keywords.
type Rule struct {
	Category string
	Keywords []string
}

// Rules is scanned top to bottom, first match wins. Income sits last and
// is special-cased: it is checked first and only for positive amounts.
var Rules = []Rule{
	{"Food", []string{"restaurant", "food", "grocery", "supermarket", "dining", "cafe", "coffee", "lunch", "dinner", "breakfast"}},
	{"Transportation", []string{"gas", "fuel", "uber", "lyft", "taxi", "bus", "train", "metro", "parking", "toll"}},
	{"Entertainment", []string{"movie", "cinema", "netflix", "spotify", "game", "concert", "theater", "entertainment"}},
	{"Shopping", []string{"amazon", "store", "shop", "clothing", "fashion", "electronics", "retail"}},
	{"Healthcare", []string{"doctor", "hospital", "pharmacy", "medical", "health", "dental", "clinic"}},
	{"Utilities", []string{"electric", "water", "gas bill", "internet", "phone", "utility", "cable"}},
	{"Rent", []string{"rent", "housing", "apartment", "mortgage", "lease"}},
	{"Insurance", []string{"insurance", "premium", "policy"}},
	{"Education", []string{"school", "education", "tuition", "book", "course", "university"}},
	{Income, []string{"salary", "wage", "bonus", "income", "payroll", "deposit", "refund"}},
}

// Categorize resolves a category for a description and signed amount.
// Positive amounts are checked against Income keywords first; expense
// rules are then scanned in declaration order, skipping Income.
func Categorize(description string, amount decimal.Decimal) string {
	if strings.TrimSpace(description) == "" {
		return Uncategorized
	}
	lower := strings.ToLower(description)

	if amount.IsPositive() {
		for _, kw := range incomeKeywords() {
			if strings.Contains(lower, kw) {
				return Income
			}
		}
	}

	for _, rule := range Rules {
		if rule.Category == Income {
			continue
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return Uncategorized
}

func incomeKeywords() []string {
	for _, rule := range Rules {
		if rule.Category == Income {
			return rule.Keywords
		}
	}
	return nil
}
