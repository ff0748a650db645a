package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MHMB/pennywise-finance-app/internal/core"
)

func monthlyBudget(id int64, category string, limit int64) core.Budget {
	return core.Budget{
		ID:       id,
		UserID:   testUser,
		Category: category,
		Limit:    decimal.NewFromInt(limit),
		Period:   core.Monthly,
	}
}

func TestBudgetStatusGood(t *testing.T) {
	store := &fakeStore{txs: []core.Transaction{
		expense(100, "Food", month(2023, time.June, 10)),
	}}
	e := newTestEngine(store)

	status, err := e.BudgetStatus(context.Background(), monthlyBudget(1, "Food", 500))
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	if status.PercentUsed != 20.0 {
		t.Errorf("percentage = %v, want 20.0", status.PercentUsed)
	}
	if status.Status != "good" {
		t.Errorf("status = %q, want good", status.Status)
	}
	if !status.Remaining.Equal(decimal.NewFromInt(400)) {
		t.Errorf("remaining = %s, want 400", status.Remaining)
	}
	// June 15th: 16 days until July 1st.
	if status.DaysRemaining != 16 {
		t.Errorf("days remaining = %d, want 16", status.DaysRemaining)
	}
	if !status.DailyAllowance.Equal(decimal.NewFromInt(25)) {
		t.Errorf("daily allowance = %s, want 25 (400/16)", status.DailyAllowance)
	}
	// 15 days elapsed of 30: 100/15*30.
	if !status.ProjectedSpending.Equal(decimal.NewFromInt(200)) {
		t.Errorf("projected = %s, want 200", status.ProjectedSpending)
	}
}

func TestBudgetStatusOver(t *testing.T) {
	store := &fakeStore{txs: []core.Transaction{
		expense(150, "Food", month(2023, time.June, 10)),
	}}
	e := newTestEngine(store)

	status, err := e.BudgetStatus(context.Background(), monthlyBudget(1, "Food", 100))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.PercentUsed != 150.0 {
		t.Errorf("percentage = %v, want 150.0", status.PercentUsed)
	}
	if status.Status != "over" {
		t.Errorf("status = %q, want over", status.Status)
	}
	if !status.DailyAllowance.IsZero() {
		t.Errorf("overspent budget should have zero allowance, got %s", status.DailyAllowance)
	}
}

func TestBudgetStatusThresholds(t *testing.T) {
	cases := []struct {
		spent float64
		want  string
	}{
		{50, "good"},
		{75, "good"}, // boundary is exclusive
		{76, "warning"},
		{90, "warning"},
		{91, "critical"},
		{100, "critical"},
		{101, "over"},
	}
	for _, tc := range cases {
		store := &fakeStore{txs: []core.Transaction{
			expense(tc.spent, "Food", month(2023, time.June, 10)),
		}}
		e := newTestEngine(store)
		status, err := e.BudgetStatus(context.Background(), monthlyBudget(1, "Food", 100))
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if status.Status != tc.want {
			t.Errorf("spent %v of 100: status = %q, want %q", tc.spent, status.Status, tc.want)
		}
	}
}

func TestBudgetStatusZeroLimit(t *testing.T) {
	store := &fakeStore{txs: []core.Transaction{
		expense(100, "Food", month(2023, time.June, 10)),
	}}
	e := newTestEngine(store)

	b := monthlyBudget(1, "Food", 0)
	status, err := e.BudgetStatus(context.Background(), b)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.PercentUsed != 0 {
		t.Errorf("zero-limit percentage = %v, want 0", status.PercentUsed)
	}
	if status.Status != "good" {
		t.Errorf("status = %q, want good", status.Status)
	}
}

func TestAlertsHighestThresholdOnly(t *testing.T) {
	store := &fakeStore{
		txs: []core.Transaction{
			expense(150, "Food", month(2023, time.June, 10)),
		},
		budgets: []core.Budget{monthlyBudget(1, "Food", 100)},
	}
	e := newTestEngine(store)

	alerts, err := e.Alerts(context.Background(), testUser)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want exactly 1 for a 150%% budget", len(alerts))
	}
	a := alerts[0]
	if a.AlertType != "critical" || a.Threshold != 100 {
		t.Errorf("alert = %s@%v, want critical@100", a.AlertType, a.Threshold)
	}
	if a.Message != "Food budget is 150.0% used (100% threshold)" {
		t.Errorf("message = %q", a.Message)
	}
}

func TestAlertsPerThreshold(t *testing.T) {
	cases := []struct {
		spent         float64
		wantCount     int
		wantType      string
		wantThreshold float64
	}{
		{50, 0, "", 0},
		{74, 0, "", 0},
		{80, 1, "warning", 75},
		{95, 1, "warning", 90},
		{100, 1, "critical", 100},
	}
	for _, tc := range cases {
		store := &fakeStore{
			txs: []core.Transaction{
				expense(tc.spent, "Food", month(2023, time.June, 10)),
			},
			budgets: []core.Budget{monthlyBudget(1, "Food", 100)},
		}
		e := newTestEngine(store)
		alerts, err := e.Alerts(context.Background(), testUser)
		if err != nil {
			t.Fatalf("alerts: %v", err)
		}
		if len(alerts) != tc.wantCount {
			t.Errorf("spent %v: alerts = %d, want %d", tc.spent, len(alerts), tc.wantCount)
			continue
		}
		if tc.wantCount == 1 {
			if alerts[0].AlertType != tc.wantType || alerts[0].Threshold != tc.wantThreshold {
				t.Errorf("spent %v: got %s@%v, want %s@%v",
					tc.spent, alerts[0].AlertType, alerts[0].Threshold, tc.wantType, tc.wantThreshold)
			}
		}
	}
}

func TestRecommendations(t *testing.T) {
	store := &fakeStore{
		txs: []core.Transaction{
			// Food: 600 in May and June, against a 500 limit -> increase.
			expense(600, "Food", month(2023, time.May, 10)),
			expense(600, "Food", month(2023, time.June, 10)),
			// Entertainment: 100 in May and June, against a 500 limit -> decrease.
			expense(100, "Entertainment", month(2023, time.May, 12)),
			expense(100, "Entertainment", month(2023, time.June, 12)),
			// Transportation: 60 in May and June, no budget -> create.
			expense(60, "Transportation", month(2023, time.May, 3)),
			expense(60, "Transportation", month(2023, time.June, 3)),
			// Coffee: a single month of data, skipped entirely.
			expense(200, "Coffee", month(2023, time.June, 4)),
			// Tiny: two months but below the create floor.
			expense(10, "Tiny", month(2023, time.May, 4)),
			expense(10, "Tiny", month(2023, time.June, 4)),
		},
		budgets: []core.Budget{
			monthlyBudget(1, "Food", 500),
			monthlyBudget(2, "Entertainment", 500),
		},
	}
	e := newTestEngine(store)

	recs, err := e.Recommendations(context.Background(), testUser, core.Monthly)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("recs = %+v, want 3", recs)
	}

	// Sorted by category.
	if recs[0].Category != "Entertainment" || recs[0].Type != "decrease" {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	if !recs[0].RecommendedLimit.Equal(decimal.NewFromInt(110)) {
		t.Errorf("decrease limit = %s, want 110 (avg 100 + 10%%)", recs[0].RecommendedLimit)
	}

	if recs[1].Category != "Food" || recs[1].Type != "increase" {
		t.Errorf("recs[1] = %+v", recs[1])
	}
	if !recs[1].RecommendedLimit.Equal(decimal.NewFromInt(720)) {
		t.Errorf("increase limit = %s, want 720 (avg 600 + 20%%)", recs[1].RecommendedLimit)
	}
	if !recs[1].CurrentLimit.Equal(decimal.NewFromInt(500)) {
		t.Errorf("current limit = %s, want 500", recs[1].CurrentLimit)
	}

	if recs[2].Category != "Transportation" || recs[2].Type != "create" {
		t.Errorf("recs[2] = %+v", recs[2])
	}
	if !recs[2].RecommendedLimit.Equal(decimal.NewFromInt(72)) {
		t.Errorf("create limit = %s, want 72 (avg 60 + 20%%)", recs[2].RecommendedLimit)
	}
}

func TestRecommendationsWithinBandStaySilent(t *testing.T) {
	store := &fakeStore{
		txs: []core.Transaction{
			// Average 500 on a 500 limit: inside the 0.8x..1.1x band.
			expense(500, "Food", month(2023, time.May, 10)),
			expense(500, "Food", month(2023, time.June, 10)),
		},
		budgets: []core.Budget{monthlyBudget(1, "Food", 500)},
	}
	e := newTestEngine(store)

	recs, err := e.Recommendations(context.Background(), testUser, core.Monthly)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("recs = %+v, want none", recs)
	}
}

func TestPerformanceHistory(t *testing.T) {
	store := &fakeStore{
		txs: []core.Transaction{
			expense(300, "Food", month(2023, time.May, 10)),
			expense(600, "Food", month(2023, time.June, 10)),
		},
		budgets: []core.Budget{monthlyBudget(1, "Food", 500)},
	}
	e := newTestEngine(store)

	history, err := e.PerformanceHistory(context.Background(), testUser, "Food", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("points = %d, want 2", len(history))
	}

	// Oldest first.
	if history[0].Month != "2023-05" || history[1].Month != "2023-06" {
		t.Fatalf("months = [%s %s]", history[0].Month, history[1].Month)
	}
	if history[0].PercentUsed != 60.0 {
		t.Errorf("may percentage = %v, want 60", history[0].PercentUsed)
	}
	if history[1].PercentUsed != 120.0 {
		t.Errorf("june percentage = %v, want 120", history[1].PercentUsed)
	}
	if !history[1].Remaining.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("june remaining = %s, want -100", history[1].Remaining)
	}
}

func TestPerformanceHistoryNoBudget(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	history, err := e.PerformanceHistory(context.Background(), testUser, "Food", 6)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history != nil {
		t.Fatalf("history = %+v, want nil without a budget", history)
	}
}

func TestOptimizeAllocation(t *testing.T) {
	store := &fakeStore{txs: []core.Transaction{
		expense(600, "Food", month(2023, time.May, 10)),
		expense(600, "Food", month(2023, time.June, 10)),
		expense(100, "Entertainment", month(2023, time.May, 12)),
		expense(100, "Entertainment", month(2023, time.June, 12)),
		expense(60, "Transportation", month(2023, time.May, 3)),
		expense(60, "Transportation", month(2023, time.June, 3)),
		// One month only: contributes to the denominator but gets no
		// allocation row.
		expense(40, "Coffee", month(2023, time.June, 4)),
	}}
	e := newTestEngine(store)

	allocations, err := e.OptimizeAllocation(context.Background(), testUser, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(allocations) != 3 {
		t.Fatalf("allocations = %+v, want 3", allocations)
	}

	// Denominator: 600 + 100 + 60 + 40 = 800.
	food := allocations[0]
	if food.Category != "Food" || food.Priority != "high" {
		t.Errorf("allocations[0] = %+v", food)
	}
	if food.Percentage != 75.0 {
		t.Errorf("food share = %v, want 75", food.Percentage)
	}
	if !food.SuggestedAllocation.Equal(decimal.NewFromInt(750)) {
		t.Errorf("food allocation = %s, want 750", food.SuggestedAllocation)
	}

	ent := allocations[1]
	if ent.Category != "Entertainment" || ent.Priority != "medium" {
		t.Errorf("allocations[1] = %+v", ent)
	}
	if !ent.SuggestedAllocation.Equal(decimal.NewFromInt(125)) {
		t.Errorf("entertainment allocation = %s, want 125", ent.SuggestedAllocation)
	}

	trans := allocations[2]
	if trans.Category != "Transportation" || trans.Priority != "low" {
		t.Errorf("allocations[2] = %+v", trans)
	}
}

func TestOptimizeAllocationNoData(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	allocations, err := e.OptimizeAllocation(context.Background(), testUser, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(allocations) != 0 {
		t.Fatalf("allocations = %+v, want none", allocations)
	}
}
