package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

type (
	// Period selects the aggregation window for budgets and reports.
	Period string

	// Transaction is a single income or expense entry owned by one user.
	// Amount is always positive; the direction is carried by IsIncome.
	Transaction struct {
		ID          int64
		UserID      string
		Date        time.Time
		Amount      decimal.Decimal
		Category    string
		Description string
		IsIncome    bool
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// User is the ownership root. Transactions and budgets reference it
	// by its string ID.
	User struct {
		ID        string
		Name      string
		Email     string
		CreatedAt time.Time
	}

	// Budget caps expense spending for one category over a recurring period.
	// Unique per (user, category, period).
	Budget struct {
		ID        int64
		UserID    string
		Category  string
		Limit     decimal.Decimal
		Period    Period
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidLimit     = errors.New("budget limit must be greater than zero")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyUserID      = errors.New("empty user id")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrZeroDate         = errors.New("date cannot be zero")
)

// ParsePeriod normalizes a period token. Unknown tokens fall back to
// monthly rather than failing; the fallback is part of the contract.
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily
	case Weekly:
		return Weekly
	case Monthly:
		return Monthly
	case Yearly:
		return Yearly
	default:
		return Monthly
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.Limit.IsPositive() {
		return ErrInvalidLimit
	}
	switch b.Period {
	case Weekly, Monthly, Yearly:
	default:
		return errors.New("invalid budget period")
	}
	return nil
}

// Day truncates a timestamp to its calendar day in UTC. The store and the
// analytics engine compare dates at day granularity only.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
