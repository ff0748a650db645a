package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MHMB/pennywise-finance-app/internal/core"
)

// ErrBudgetExists is returned when a budget for the same (category,
// period) pair already exists for the user.
var ErrBudgetExists = errors.New("budget already exists for this category and period")

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category, limit_amount, period, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Category, b.Limit.String(), string(b.Period), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, ErrBudgetExists
		}
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("last insert id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID string, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category, limit_amount, period, created_at, updated_at
		FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns all budgets for a user; pass a period to narrow.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string, period core.Period) ([]core.Budget, error) {
	query := `
		SELECT id, user_id, category, limit_amount, period, created_at, updated_at
		FROM budgets WHERE user_id = ?`
	args := []any{userID}
	if period != "" {
		query += " AND period = ?"
		args = append(args, string(period))
	}
	query += " ORDER BY category"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// FindBudget looks up the budget covering one (category, period) pair.
func (r *SQLiteRepository) FindBudget(ctx context.Context, userID, category string, period core.Period) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category, limit_amount, period, created_at, updated_at
		FROM budgets WHERE user_id = ? AND category = ? AND period = ?`,
		userID, category, string(period))
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("find budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET category = ?, limit_amount = ?, period = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		b.Category, b.Limit.String(), string(b.Period), now, b.ID, b.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, ErrBudgetExists
		}
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Budget{}, ErrNotFound
	}
	return r.GetBudget(ctx, b.UserID, b.ID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b         core.Budget
		limitStr  string
		periodStr string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Category, &limitStr, &periodStr,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return core.Budget{}, err
	}

	var err error
	if b.Limit, err = decimal.NewFromString(limitStr); err != nil {
		return core.Budget{}, fmt.Errorf("parse stored limit %q: %w", limitStr, err)
	}
	b.Period = core.Period(periodStr)
	return b, nil
}
