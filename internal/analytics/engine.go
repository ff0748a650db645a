// Package analytics computes period-windowed aggregates over stored
// transactions and budgets: totals, category breakdowns, monthly
// trends and the budget status/alert/recommendation suite. It only
// reads; missing data yields zero values, never errors.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MHMB/pennywise-finance-app/internal/core"
	"github.com/MHMB/pennywise-finance-app/internal/storage"
)

// TransactionReader is the slice of the store the engine reads
// transactions through. *storage.SQLiteRepository satisfies it.
type TransactionReader interface {
	SumAmount(ctx context.Context, userID string, isIncome bool, start, end time.Time) (decimal.Decimal, error)
	SumCategory(ctx context.Context, userID, category string, start, end time.Time) (decimal.Decimal, error)
	GroupByCategory(ctx context.Context, userID string, isIncome bool, start, end time.Time) ([]storage.CategoryTotal, error)
	CountByType(ctx context.Context, userID string, isIncome bool, start, end time.Time) (int, error)
}

// BudgetReader is the slice of the store the engine reads budgets
// through. FindBudget returns storage.ErrNotFound for absent budgets.
type BudgetReader interface {
	ListBudgets(ctx context.Context, userID string, period core.Period) ([]core.Budget, error)
	FindBudget(ctx context.Context, userID, category string, period core.Period) (core.Budget, error)
}

type Engine struct {
	txs     TransactionReader
	budgets BudgetReader
	now     func() time.Time
}

func NewEngine(txs TransactionReader, budgets BudgetReader) *Engine {
	return &Engine{txs: txs, budgets: budgets, now: time.Now}
}

// Totals is income vs expenses over one window.
type Totals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// TrendPoint is one month of a trend series.
type TrendPoint struct {
	Month     string          `json:"month"`      // 2023-06
	MonthName string          `json:"month_name"` // June 2023
	Income    decimal.Decimal `json:"income"`
	Expenses  decimal.Decimal `json:"expenses"`
	Net       decimal.Decimal `json:"net"`
}

// Summary bundles everything a dashboard needs for one period window.
type Summary struct {
	Period        core.Period             `json:"period"`
	Start         time.Time               `json:"start"`
	End           time.Time               `json:"end"`
	Totals        Totals                  `json:"totals"`
	TotalCount    int                     `json:"total_count"`
	IncomeCount   int                     `json:"income_count"`
	ExpenseCount  int                     `json:"expense_count"`
	Breakdown     []storage.CategoryTotal `json:"category_breakdown"`
	TopCategories []storage.CategoryTotal `json:"top_categories"`
	Performance   []BudgetStatus          `json:"budget_performance"`
}

// Totals sums both directions of money flow in the period window
// anchored at anchor (zero anchor means now).
func (e *Engine) Totals(ctx context.Context, userID string, period core.Period, anchor time.Time) (Totals, error) {
	start, end := e.rangeFor(period, anchor)

	income, err := e.txs.SumAmount(ctx, userID, true, start, end)
	if err != nil {
		return Totals{}, fmt.Errorf("sum income: %w", err)
	}
	expenses, err := e.txs.SumAmount(ctx, userID, false, start, end)
	if err != nil {
		return Totals{}, fmt.Errorf("sum expenses: %w", err)
	}
	return Totals{Income: income, Expenses: expenses, Net: income.Sub(expenses)}, nil
}

// CategoryBreakdown returns expense totals per category, largest first.
func (e *Engine) CategoryBreakdown(ctx context.Context, userID string, period core.Period, anchor time.Time) ([]storage.CategoryTotal, error) {
	start, end := e.rangeFor(period, anchor)
	breakdown, err := e.txs.GroupByCategory(ctx, userID, false, start, end)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	return breakdown, nil
}

// TopCategories truncates the breakdown to the limit biggest spenders.
func (e *Engine) TopCategories(ctx context.Context, userID string, period core.Period, anchor time.Time, limit int) ([]storage.CategoryTotal, error) {
	breakdown, err := e.CategoryBreakdown(ctx, userID, period, anchor)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(breakdown) > limit {
		breakdown = breakdown[:limit]
	}
	return breakdown, nil
}

// MonthlyTrends walks the last months calendar months, oldest first.
func (e *Engine) MonthlyTrends(ctx context.Context, userID string, months int) ([]TrendPoint, error) {
	if months <= 0 {
		months = 12
	}
	first := firstOfMonth(e.now())

	trends := make([]TrendPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		monthStart := first.AddDate(0, -i, 0)
		start, end := core.PeriodRange(core.Monthly, monthStart)

		income, err := e.txs.SumAmount(ctx, userID, true, start, end)
		if err != nil {
			return nil, fmt.Errorf("trend income %s: %w", monthStart.Format("2006-01"), err)
		}
		expenses, err := e.txs.SumAmount(ctx, userID, false, start, end)
		if err != nil {
			return nil, fmt.Errorf("trend expenses %s: %w", monthStart.Format("2006-01"), err)
		}

		trends = append(trends, TrendPoint{
			Month:     monthStart.Format("2006-01"),
			MonthName: monthStart.Format("January 2006"),
			Income:    income,
			Expenses:  expenses,
			Net:       income.Sub(expenses),
		})
	}
	return trends, nil
}

// Summary assembles totals, counts, breakdowns and budget performance
// for one period window.
func (e *Engine) Summary(ctx context.Context, userID string, period core.Period, anchor time.Time) (Summary, error) {
	start, end := e.rangeFor(period, anchor)

	totals, err := e.Totals(ctx, userID, period, anchor)
	if err != nil {
		return Summary{}, err
	}
	breakdown, err := e.CategoryBreakdown(ctx, userID, period, anchor)
	if err != nil {
		return Summary{}, err
	}

	incomeCount, err := e.txs.CountByType(ctx, userID, true, start, end)
	if err != nil {
		return Summary{}, fmt.Errorf("count income: %w", err)
	}
	expenseCount, err := e.txs.CountByType(ctx, userID, false, start, end)
	if err != nil {
		return Summary{}, fmt.Errorf("count expenses: %w", err)
	}

	performance, err := e.BudgetPerformance(ctx, userID, period)
	if err != nil {
		return Summary{}, err
	}

	top := breakdown
	if len(top) > 5 {
		top = top[:5]
	}

	return Summary{
		Period:        period,
		Start:         start,
		End:           end,
		Totals:        totals,
		TotalCount:    incomeCount + expenseCount,
		IncomeCount:   incomeCount,
		ExpenseCount:  expenseCount,
		Breakdown:     breakdown,
		TopCategories: top,
		Performance:   performance,
	}, nil
}

func (e *Engine) rangeFor(period core.Period, anchor time.Time) (time.Time, time.Time) {
	if anchor.IsZero() {
		anchor = e.now()
	}
	return core.PeriodRange(period, anchor)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
