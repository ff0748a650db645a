package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MHMB/pennywise-finance-app/internal/amqp"
	"github.com/MHMB/pennywise-finance-app/internal/core"
)

const testUser = "11111111-2222-3333-4444-555555555555"

type fakeTxStore struct {
	created []core.Transaction
	nextID  int64
}

func (f *fakeTxStore) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	f.nextID++
	tx.ID = f.nextID
	f.created = append(f.created, tx)
	return tx, nil
}

func (f *fakeTxStore) FindPotentialDuplicates(_ context.Context, userID string, amount decimal.Decimal, descPrefix string, date time.Time, toleranceDays int) ([]core.Transaction, error) {
	window := time.Duration(toleranceDays) * 24 * time.Hour
	var out []core.Transaction
	for _, tx := range f.created {
		if tx.UserID != userID {
			continue
		}
		if !strings.Contains(tx.Description, descPrefix) {
			continue
		}
		diff := tx.Date.Sub(date)
		if diff < -window || diff > window {
			continue
		}
		tolerance := amount.Mul(decimal.NewFromFloat(0.01))
		if tx.Amount.Sub(amount).Abs().GreaterThan(tolerance) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

type fakePublisher struct {
	messages []*amqp.ImportCompletedMessage
}

func (f *fakePublisher) PublishImportCompleted(_ context.Context, msg *amqp.ImportCompletedMessage) error {
	f.messages = append(f.messages, msg)
	return nil
}

func TestImportCSVPersistsAndPublishes(t *testing.T) {
	store := &fakeTxStore{}
	pub := &fakePublisher{}
	svc := NewImportService(store, pub, true, nil)

	content := strings.Join([]string{
		"date,amount,description",
		"2023-06-01,-42.50,Grocery shopping",
		"2023-06-02,2000,Salary deposit",
	}, "\n")

	outcome, err := svc.ImportCSV(context.Background(), testUser, content)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if !outcome.Success || len(outcome.Imported) != 2 {
		t.Fatalf("outcome = %+v", outcome)
	}
	if len(store.created) != 2 {
		t.Fatalf("persisted = %d, want 2", len(store.created))
	}
	if len(pub.messages) != 1 {
		t.Fatalf("events = %d, want 1", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.UserID != testUser || msg.ProcessedRows != 2 || msg.TotalRows != 2 {
		t.Fatalf("event = %+v", msg)
	}
}

func TestImportCSVSkipsStoredDuplicates(t *testing.T) {
	store := &fakeTxStore{}
	store.created = append(store.created, core.Transaction{
		ID: 1, UserID: testUser,
		Date:        time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromFloat(42.50),
		Description: "Grocery shopping",
	})

	svc := NewImportService(store, nil, true, nil)
	content := "date,amount,description\n2023-06-01,-42.50,Grocery shopping\n"

	outcome, err := svc.ImportCSV(context.Background(), testUser, content)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if outcome.SkippedDuplicates != 1 || len(outcome.Imported) != 0 {
		t.Fatalf("outcome = %+v", outcome)
	}
	if !outcome.Success {
		t.Fatal("all-duplicates batch should still report success")
	}
	if len(store.created) != 1 {
		t.Fatalf("persisted = %d, want only the pre-existing row", len(store.created))
	}
}

func TestImportCSVSkipsInBatchDuplicates(t *testing.T) {
	store := &fakeTxStore{}
	svc := NewImportService(store, nil, true, nil)

	content := strings.Join([]string{
		"date,amount,description",
		"2023-06-01,-42.50,Grocery shopping at the market",
		"2023-06-01,-42.50,Grocery shopping at the market",
	}, "\n")

	outcome, err := svc.ImportCSV(context.Background(), testUser, content)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(outcome.Imported) != 1 || outcome.SkippedDuplicates != 1 {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestImportCSVDuplicateSkipDisabled(t *testing.T) {
	store := &fakeTxStore{}
	svc := NewImportService(store, nil, false, nil)

	content := strings.Join([]string{
		"date,amount,description",
		"2023-06-01,-42.50,Grocery shopping",
		"2023-06-01,-42.50,Grocery shopping",
	}, "\n")

	outcome, err := svc.ImportCSV(context.Background(), testUser, content)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(outcome.Imported) != 2 || outcome.SkippedDuplicates != 0 {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestImportCSVFailFast(t *testing.T) {
	store := &fakeTxStore{}
	pub := &fakePublisher{}
	svc := NewImportService(store, pub, true, nil)

	outcome, err := svc.ImportCSV(context.Background(), testUser, "foo,bar\n1,2\n")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if outcome.Success || len(outcome.Errors) != 1 {
		t.Fatalf("outcome = %+v", outcome)
	}
	if len(store.created) != 0 {
		t.Fatal("nothing should be persisted on a fail-fast import")
	}
	if len(pub.messages) != 0 {
		t.Fatal("no event for a failed import")
	}
}

func TestCheckDuplicate(t *testing.T) {
	store := &fakeTxStore{}
	store.created = append(store.created, core.Transaction{
		ID: 1, UserID: testUser,
		Date:        time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromInt(100),
		Description: "Monthly gym membership fee",
	})
	svc := NewImportService(store, nil, true, nil)

	candidate := core.Transaction{
		UserID:      testUser,
		Date:        time.Date(2023, time.June, 2, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromInt(100),
		Description: "Monthly gym membership fee",
	}

	matches, err := svc.CheckDuplicate(context.Background(), candidate, 0)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1 within the default window", len(matches))
	}

	candidate.Date = time.Date(2023, time.June, 4, 0, 0, 0, 0, time.UTC)
	matches, err = svc.CheckDuplicate(context.Background(), candidate, 3)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1 within a three-day window", len(matches))
	}
}

func TestImportCSVAllRowsFailingStillSucceeds(t *testing.T) {
	store := &fakeTxStore{}
	pub := &fakePublisher{}
	svc := NewImportService(store, pub, true, nil)

	outcome, err := svc.ImportCSV(context.Background(), testUser, "date,amount,description\nnot-a-date,abc,\n")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !outcome.Success {
		t.Fatal("row failures are recoverable, the batch still succeeds")
	}
	if len(outcome.Imported) != 0 || len(outcome.Errors) != 1 {
		t.Fatalf("outcome = %+v", outcome)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("events = %d, want a completion event", len(pub.messages))
	}
}
