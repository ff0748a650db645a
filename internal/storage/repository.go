// Package storage persists transactions and budgets in SQLite. Amounts
// are stored as exact decimal strings and dates as YYYY-MM-DD; every
// query is scoped by user_id.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/MHMB/pennywise-finance-app/internal/core"
)

const dayLayout = "2006-01-02"

// ErrNotFound is returned when a row does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// TransactionFilter narrows ListTransactions. Zero values mean "no
// constraint"; IsIncome is a pointer so false can be expressed.
type TransactionFilter struct {
	Category string
	IsIncome *bool
	Start    time.Time
	End      time.Time
	Limit    int
	Offset   int
}

// CategoryTotal is one row of a per-category aggregate.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, date, amount, category, description, is_income, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, core.Day(tx.Date).Format(dayLayout), tx.Amount.String(),
		tx.Category, tx.Description, tx.IsIncome, now, now)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	tx.ID = id
	tx.Date = core.Day(tx.Date)
	tx.CreatedAt = now
	tx.UpdatedAt = now
	return tx, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID string, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, amount, category, description, is_income, created_at, updated_at
		FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	var (
		conds = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.IsIncome != nil {
		conds = append(conds, "is_income = ?")
		args = append(args, *f.IsIncome)
	}
	if !f.Start.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, core.Day(f.Start).Format(dayLayout))
	}
	if !f.End.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, core.Day(f.End).Format(dayLayout))
	}

	query := `
		SELECT id, user_id, date, amount, category, description, is_income, created_at, updated_at
		FROM transactions WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, amount = ?, category = ?, description = ?, is_income = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		core.Day(tx.Date).Format(dayLayout), tx.Amount.String(), tx.Category,
		tx.Description, tx.IsIncome, now, tx.ID, tx.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return r.GetTransaction(ctx, tx.UserID, tx.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SumAmount totals one direction of money flow inside [start, end].
func (r *SQLiteRepository) SumAmount(ctx context.Context, userID string, isIncome bool, start, end time.Time) (decimal.Decimal, error) {
	var total sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT CAST(TOTAL(CAST(amount AS REAL)) AS TEXT)
		FROM transactions
		WHERE user_id = ? AND is_income = ? AND date >= ? AND date <= ?`,
		userID, isIncome, core.Day(start).Format(dayLayout), core.Day(end).Format(dayLayout),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum amounts: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(total.String)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse sum %q: %w", total.String, err)
	}
	return d, nil
}

// SumCategory totals expense spending for one category inside [start, end].
func (r *SQLiteRepository) SumCategory(ctx context.Context, userID, category string, start, end time.Time) (decimal.Decimal, error) {
	var total sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT CAST(TOTAL(CAST(amount AS REAL)) AS TEXT)
		FROM transactions
		WHERE user_id = ? AND category = ? AND is_income = 0 AND date >= ? AND date <= ?`,
		userID, category, core.Day(start).Format(dayLayout), core.Day(end).Format(dayLayout),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum category: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(total.String)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse sum %q: %w", total.String, err)
	}
	return d, nil
}

// GroupByCategory aggregates one direction per category inside
// [start, end], largest total first.
func (r *SQLiteRepository) GroupByCategory(ctx context.Context, userID string, isIncome bool, start, end time.Time) ([]CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, CAST(TOTAL(CAST(amount AS REAL)) AS TEXT), COUNT(*)
		FROM transactions
		WHERE user_id = ? AND is_income = ? AND date >= ? AND date <= ?
		GROUP BY category
		ORDER BY TOTAL(CAST(amount AS REAL)) DESC`,
		userID, isIncome, core.Day(start).Format(dayLayout), core.Day(end).Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("group by category: %w", err)
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var (
			ct       CategoryTotal
			totalStr string
		)
		if err := rows.Scan(&ct.Category, &totalStr, &ct.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		if ct.Total, err = decimal.NewFromString(totalStr); err != nil {
			return nil, fmt.Errorf("parse category total %q: %w", totalStr, err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// CountByType counts one direction of transactions inside [start, end].
func (r *SQLiteRepository) CountByType(ctx context.Context, userID string, isIncome bool, start, end time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = ? AND is_income = ? AND date >= ? AND date <= ?`,
		userID, isIncome, core.Day(start).Format(dayLayout), core.Day(end).Format(dayLayout),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// FindPotentialDuplicates narrows stored rows to candidates near the
// given amount, within toleranceDays of the given date, whose
// description contains the given prefix. instr() keeps the comparison
// case-sensitive where LIKE would not be.
func (r *SQLiteRepository) FindPotentialDuplicates(ctx context.Context, userID string, amount decimal.Decimal, descPrefix string, date time.Time, toleranceDays int) ([]core.Transaction, error) {
	if toleranceDays < 0 {
		toleranceDays = 0
	}
	tolerance := amount.Mul(decimal.NewFromFloat(0.01)).Abs()
	low, _ := amount.Sub(tolerance).Float64()
	high, _ := amount.Add(tolerance).Float64()
	day := core.Day(date)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, amount, category, description, is_income, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
		  AND CAST(amount AS REAL) BETWEEN ? AND ?
		  AND instr(description, ?) > 0
		  AND date >= ? AND date <= ?`,
		userID, low, high, descPrefix,
		day.AddDate(0, 0, -toleranceDays).Format(dayLayout), day.AddDate(0, 0, toleranceDays).Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("find potential duplicates: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan duplicate candidate: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// DistinctCategories lists the categories a user has actually used.
func (r *SQLiteRepository) DistinctCategories(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM transactions WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		dateStr   string
		amountStr string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &dateStr, &amountStr, &tx.Category,
		&tx.Description, &tx.IsIncome, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
		return core.Transaction{}, err
	}

	date, err := time.Parse(dayLayout, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	tx.Date = date

	if tx.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
	}
	return tx, nil
}
