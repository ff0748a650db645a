package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTransaction() Transaction {
	return Transaction{
		UserID:      "11111111-2222-3333-4444-555555555555",
		Date:        time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromFloat(42.50),
		Category:    "Food",
		Description: "Grocery shopping",
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"empty user", func(tx *Transaction) { tx.UserID = " " }, ErrEmptyUserID},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrZeroDate},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-5) }, ErrInvalidAmount},
		{"empty description", func(tx *Transaction) { tx.Description = "   " }, ErrEmptyDescription},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			if err := tx.Validate(); err != tc.want {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{
		UserID:   "11111111-2222-3333-4444-555555555555",
		Category: "Food",
		Limit:    decimal.NewFromInt(500),
		Period:   Monthly,
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}

	zero := b
	zero.Limit = decimal.Zero
	if err := zero.Validate(); err != ErrInvalidLimit {
		t.Fatalf("zero limit: got %v, want %v", err, ErrInvalidLimit)
	}

	daily := b
	daily.Period = Daily
	if err := daily.Validate(); err == nil {
		t.Fatal("daily budgets are not supported, expected error")
	}
}
