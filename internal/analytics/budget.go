package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MHMB/pennywise-finance-app/internal/core"
	"github.com/MHMB/pennywise-finance-app/internal/storage"
)

// BudgetStatus is the full health readout for one budget in its
// current period window.
type BudgetStatus struct {
	BudgetID          int64           `json:"budget_id"`
	Category          string          `json:"category"`
	Period            core.Period     `json:"period"`
	Limit             decimal.Decimal `json:"limit"`
	Spent             decimal.Decimal `json:"spent"`
	Remaining         decimal.Decimal `json:"remaining"`
	PercentUsed       float64         `json:"percentage_used"`
	Status            string          `json:"status"`
	StatusMessage     string          `json:"status_message"`
	DaysRemaining     int             `json:"days_remaining"`
	DailyAllowance    decimal.Decimal `json:"daily_allowance"`
	ProjectedSpending decimal.Decimal `json:"projected_spending"`
}

// Alert reports one budget crossing its highest breached threshold.
type Alert struct {
	BudgetID    int64           `json:"budget_id"`
	Category    string          `json:"category"`
	AlertType   string          `json:"alert_type"` // critical | warning
	Threshold   float64         `json:"threshold"`
	PercentUsed float64         `json:"percentage_used"`
	Spent       decimal.Decimal `json:"spent"`
	Limit       decimal.Decimal `json:"limit"`
	Remaining   decimal.Decimal `json:"remaining"`
	Message     string          `json:"message"`
}

// Recommendation proposes a budget change from trailing spending.
type Recommendation struct {
	Category         string          `json:"category"`
	Type             string          `json:"type"` // increase | decrease | create
	CurrentLimit     decimal.Decimal `json:"current_limit,omitempty"`
	RecommendedLimit decimal.Decimal `json:"recommended_limit"`
	Reason           string          `json:"reason"`
}

// PerformancePoint is one month of budget performance history.
type PerformancePoint struct {
	Month       string          `json:"month"`
	MonthName   string          `json:"month_name"`
	Limit       decimal.Decimal `json:"limit"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentUsed float64         `json:"percentage_used"`
}

// Allocation is one category's share of a proposed total budget.
type Allocation struct {
	Category            string          `json:"category"`
	CurrentAvg          decimal.Decimal `json:"current_avg"`
	Percentage          float64         `json:"percentage"`
	SuggestedAllocation decimal.Decimal `json:"suggested_allocation"`
	Priority            string          `json:"priority"` // high | medium | low
}

// alertThresholds is scanned in descending order so only the highest
// crossed threshold produces an alert.
var alertThresholds = []float64{100, 90, 75}

var (
	increaseTrigger = decimal.NewFromFloat(1.1)
	decreaseTrigger = decimal.NewFromFloat(0.8)
	wideBuffer      = decimal.NewFromFloat(1.2)
	narrowBuffer    = decimal.NewFromFloat(1.1)
	createFloor     = decimal.NewFromInt(50)
)

const trailingMonths = 3

// BudgetStatus computes one budget's health in its current window.
func (e *Engine) BudgetStatus(ctx context.Context, b core.Budget) (BudgetStatus, error) {
	now := e.now()
	start, end := core.PeriodRange(b.Period, now)

	spent, err := e.txs.SumCategory(ctx, b.UserID, b.Category, start, end)
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("budget spending: %w", err)
	}

	remaining := b.Limit.Sub(spent)
	pct := percentUsed(spent, b.Limit)
	status, message := statusLabel(pct)
	daysLeft := core.DaysRemaining(b.Period, now)

	return BudgetStatus{
		BudgetID:          b.ID,
		Category:          b.Category,
		Period:            b.Period,
		Limit:             b.Limit,
		Spent:             spent,
		Remaining:         remaining,
		PercentUsed:       pct,
		Status:            status,
		StatusMessage:     message,
		DaysRemaining:     daysLeft,
		DailyAllowance:    dailyAllowance(remaining, daysLeft),
		ProjectedSpending: projectSpending(spent, start, end, core.Day(now)),
	}, nil
}

// BudgetPerformance computes status for every budget of one period.
func (e *Engine) BudgetPerformance(ctx context.Context, userID string, period core.Period) ([]BudgetStatus, error) {
	budgets, err := e.budgets.ListBudgets(ctx, userID, period)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		status, err := e.BudgetStatus(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

// Alerts scans every budget of the user and reports the single highest
// threshold each one has crossed, if any.
func (e *Engine) Alerts(ctx context.Context, userID string) ([]Alert, error) {
	budgets, err := e.budgets.ListBudgets(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	var alerts []Alert
	for _, b := range budgets {
		status, err := e.BudgetStatus(ctx, b)
		if err != nil {
			return nil, err
		}
		for _, threshold := range alertThresholds {
			if status.PercentUsed < threshold {
				continue
			}
			alertType := "warning"
			if threshold >= 100 {
				alertType = "critical"
			}
			alerts = append(alerts, Alert{
				BudgetID:    b.ID,
				Category:    b.Category,
				AlertType:   alertType,
				Threshold:   threshold,
				PercentUsed: status.PercentUsed,
				Spent:       status.Spent,
				Limit:       b.Limit,
				Remaining:   status.Remaining,
				Message: fmt.Sprintf("%s budget is %.1f%% used (%.0f%% threshold)",
					b.Category, status.PercentUsed, threshold),
			})
			break
		}
	}
	return alerts, nil
}

// Recommendations compares trailing 3-month average spending per
// category against existing limits. Categories need at least 2 months
// of data to qualify; results are sorted by category.
func (e *Engine) Recommendations(ctx context.Context, userID string, period core.Period) ([]Recommendation, error) {
	spending, err := e.categorySpendingByMonth(ctx, userID, trailingMonths)
	if err != nil {
		return nil, err
	}

	var recs []Recommendation
	for category, amounts := range spending {
		if len(amounts) < 2 {
			continue
		}
		avg := average(amounts)

		b, err := e.budgets.FindBudget(ctx, userID, category, period)
		switch {
		case err == nil:
			if avg.GreaterThan(b.Limit.Mul(increaseTrigger)) {
				recs = append(recs, Recommendation{
					Category:         category,
					Type:             "increase",
					CurrentLimit:     b.Limit,
					RecommendedLimit: avg.Mul(wideBuffer).Round(2),
					Reason:           fmt.Sprintf("average spending ($%s) exceeds current budget", avg.StringFixed(2)),
				})
			} else if avg.LessThan(b.Limit.Mul(decreaseTrigger)) {
				recs = append(recs, Recommendation{
					Category:         category,
					Type:             "decrease",
					CurrentLimit:     b.Limit,
					RecommendedLimit: avg.Mul(narrowBuffer).Round(2),
					Reason:           fmt.Sprintf("average spending ($%s) is well below current budget", avg.StringFixed(2)),
				})
			}
		case errors.Is(err, storage.ErrNotFound):
			if avg.GreaterThan(createFloor) {
				recs = append(recs, Recommendation{
					Category:         category,
					Type:             "create",
					RecommendedLimit: avg.Mul(wideBuffer).Round(2),
					Reason:           fmt.Sprintf("regular spending of $%s per month detected", avg.StringFixed(2)),
				})
			}
		default:
			return nil, fmt.Errorf("find budget for %s: %w", category, err)
		}
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Category < recs[j].Category })
	return recs, nil
}

// PerformanceHistory back-fills monthly status for one category's
// monthly budget, oldest month first. No budget means no history.
func (e *Engine) PerformanceHistory(ctx context.Context, userID, category string, months int) ([]PerformancePoint, error) {
	if months <= 0 {
		months = 6
	}

	b, err := e.budgets.FindBudget(ctx, userID, category, core.Monthly)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find budget: %w", err)
	}

	first := firstOfMonth(e.now())
	history := make([]PerformancePoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		monthStart := first.AddDate(0, -i, 0)
		start, end := core.PeriodRange(core.Monthly, monthStart)

		spent, err := e.txs.SumCategory(ctx, userID, category, start, end)
		if err != nil {
			return nil, fmt.Errorf("history spending %s: %w", monthStart.Format("2006-01"), err)
		}

		history = append(history, PerformancePoint{
			Month:       monthStart.Format("2006-01"),
			MonthName:   monthStart.Format("January 2006"),
			Limit:       b.Limit,
			Spent:       spent,
			Remaining:   b.Limit.Sub(spent),
			PercentUsed: percentUsed(spent, b.Limit),
		})
	}
	return history, nil
}

// OptimizeAllocation distributes a total target budget across
// categories proportionally to their trailing 3-month average share,
// biggest share first.
func (e *Engine) OptimizeAllocation(ctx context.Context, userID string, totalBudget decimal.Decimal) ([]Allocation, error) {
	spending, err := e.categorySpendingByMonth(ctx, userID, trailingMonths)
	if err != nil {
		return nil, err
	}

	// The share denominator includes every category's average, even
	// ones with too little data to receive an allocation of their own.
	totalSpending := decimal.Zero
	for _, amounts := range spending {
		totalSpending = totalSpending.Add(average(amounts))
	}

	var allocations []Allocation
	for category, amounts := range spending {
		if len(amounts) < 2 {
			continue
		}
		avg := average(amounts)

		percentage := 0.0
		if totalSpending.IsPositive() {
			percentage = avg.Div(totalSpending).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}

		priority := "low"
		if percentage > 20 {
			priority = "high"
		} else if percentage > 10 {
			priority = "medium"
		}

		suggested := decimal.Zero
		if totalSpending.IsPositive() {
			suggested = totalBudget.Mul(avg).Div(totalSpending).Round(2)
		}

		allocations = append(allocations, Allocation{
			Category:            category,
			CurrentAvg:          avg.Round(2),
			Percentage:          percentage,
			SuggestedAllocation: suggested,
			Priority:            priority,
		})
	}

	sort.Slice(allocations, func(i, j int) bool {
		if allocations[i].Percentage != allocations[j].Percentage {
			return allocations[i].Percentage > allocations[j].Percentage
		}
		return allocations[i].Category < allocations[j].Category
	})
	return allocations, nil
}

// categorySpendingByMonth collects per-category expense totals over
// the last n calendar months, newest first within each list.
func (e *Engine) categorySpendingByMonth(ctx context.Context, userID string, n int) (map[string][]decimal.Decimal, error) {
	first := firstOfMonth(e.now())

	spending := map[string][]decimal.Decimal{}
	for i := 0; i < n; i++ {
		start, end := core.PeriodRange(core.Monthly, first.AddDate(0, -i, 0))
		breakdown, err := e.txs.GroupByCategory(ctx, userID, false, start, end)
		if err != nil {
			return nil, fmt.Errorf("spending month %s: %w", start.Format("2006-01"), err)
		}
		for _, ct := range breakdown {
			spending[ct.Category] = append(spending[ct.Category], ct.Total)
		}
	}
	return spending, nil
}

func percentUsed(spent, limit decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	return spent.Div(limit).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

func statusLabel(pct float64) (string, string) {
	switch {
	case pct > 100:
		return "over", "Over budget"
	case pct > 90:
		return "critical", "Critical - 90%+ used"
	case pct > 75:
		return "warning", "Warning - 75%+ used"
	default:
		return "good", "On track"
	}
}

func dailyAllowance(remaining decimal.Decimal, daysLeft int) decimal.Decimal {
	if daysLeft <= 0 || !remaining.IsPositive() {
		return decimal.Zero
	}
	return remaining.Div(decimal.NewFromInt(int64(daysLeft))).Round(2)
}

func projectSpending(spent decimal.Decimal, start, end, today time.Time) decimal.Decimal {
	daysElapsed := int(today.Sub(start).Hours()/24) + 1
	if daysElapsed <= 0 {
		return decimal.Zero
	}
	totalDays := int(end.Sub(start).Hours()/24) + 1
	dailyRate := spent.Div(decimal.NewFromInt(int64(daysElapsed)))
	return dailyRate.Mul(decimal.NewFromInt(int64(totalDays))).Round(2)
}

func average(amounts []decimal.Decimal) decimal.Decimal {
	if len(amounts) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return sum.Div(decimal.NewFromInt(int64(len(amounts))))
}
