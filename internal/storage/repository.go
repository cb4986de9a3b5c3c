// Package storage implements the persistence boundary on SQLite. The core
// pipelines never touch it directly; services and workers consume it through
// narrow interfaces so the parser and advice generator stay unit-testable
// without a database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finsight/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a missing row for keyed lookups.
var ErrNotFound = errors.New("storage: not found")

type Repository struct {
	db *sql.DB
}

func Open(dbPath string) (*Repository, error) {
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

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "email", u.Email)
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var (
		u  core.User
		id string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&id, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("select user by email: %w", err)
	}

	u.ID, err = uuid.Parse(id)
	if err != nil {
		return core.User{}, fmt.Errorf("parse user id: %w", err)
	}
	return u, nil
}

// ListUserIDs returns every user id; the scheduled rewards sweep iterates it.
func (r *Repository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("select user ids: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- transactions ---

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions
		   (id, user_id, amount, type, category, description, merchant, sms_body, transaction_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.UserID.String(), t.Amount.String(), string(t.Type),
		t.Category, t.Description, t.Merchant, t.SMSBody, t.Date, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"category", t.Category,
		"amount", t.Amount.String())
	return nil
}

const transactionColumns = `id, user_id, amount, type, category, description, merchant, sms_body, transaction_date, created_at`

func (r *Repository) scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t          core.Transaction
		id, userID string
		amount     string
		txType     string
	)
	err := row.Scan(&id, &userID, &amount, &txType, &t.Category,
		&t.Description, &t.Merchant, &t.SMSBody, &t.Date, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}

	if t.ID, err = uuid.Parse(id); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	if t.UserID, err = uuid.Parse(userID); err != nil {
		return core.Transaction{}, fmt.Errorf("parse user id: %w", err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	t.Type = core.TransactionType(txType)
	return t, nil
}

// GetTransaction looks up a transaction scoped to its owner.
func (r *Repository) GetTransaction(ctx context.Context, userID, id uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())

	t, err := r.scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("select transaction: %w", err)
	}
	return t, nil
}

// GetTransactionByID looks up a transaction without an owner scope; used by
// the background worker, which receives ids from the queue.
func (r *Repository) GetTransactionByID(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id.String())

	t, err := r.scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("select transaction by id: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+`
		   FROM transactions
		  WHERE user_id = ?
		  ORDER BY transaction_date DESC, created_at DESC
		  LIMIT ?`,
		userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecentExpenses returns the most-recent-first bounded window of expense
// transactions consumed by the advice generator.
func (r *Repository) RecentExpenses(ctx context.Context, userID uuid.UUID, limit int) ([]core.RecentTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT amount, category, type, transaction_date
		   FROM transactions
		  WHERE user_id = ? AND type = 'expense'
		  ORDER BY transaction_date DESC
		  LIMIT ?`,
		userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("select recent expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecentTransaction
	for rows.Next() {
		var (
			t      core.RecentTransaction
			amount string
			txType string
		)
		if err := rows.Scan(&amount, &t.Category, &txType, &t.Date); err != nil {
			return nil, fmt.Errorf("scan recent expense: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		t.Type = core.TransactionType(txType)
		out = append(out, t)
	}
	return out, rows.Err()
}

// MonthOverview aggregates one calendar month for the insights endpoint.
func (r *Repository) MonthOverview(ctx context.Context, userID uuid.UUID, year, month int) (core.MonthOverview, error) {
	overview := core.MonthOverview{Year: year, Month: month}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows, err := r.db.QueryContext(ctx,
		`SELECT amount, type, category
		   FROM transactions
		  WHERE user_id = ? AND transaction_date >= ? AND transaction_date < ?`,
		userID.String(), from, to)
	if err != nil {
		return overview, fmt.Errorf("select month transactions: %w", err)
	}
	defer rows.Close()

	// Decimal amounts are stored as strings, so summing happens here rather
	// than in SQL.
	byCategory := map[string]decimal.Decimal{}
	var order []string
	for rows.Next() {
		var amountStr, txType, category string
		if err := rows.Scan(&amountStr, &txType, &category); err != nil {
			return overview, fmt.Errorf("scan month transaction: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return overview, fmt.Errorf("parse amount: %w", err)
		}

		switch core.TransactionType(txType) {
		case core.Income:
			overview.Income = overview.Income.Add(amount)
		case core.Expense:
			overview.Expenses = overview.Expenses.Add(amount)
			if _, seen := byCategory[category]; !seen {
				order = append(order, category)
			}
			byCategory[category] = byCategory[category].Add(amount)
		}
	}
	if err := rows.Err(); err != nil {
		return overview, fmt.Errorf("iterate month transactions: %w", err)
	}

	for _, name := range order {
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: byCategory[name],
		})
	}
	return overview, nil
}

// --- advice ---

func (r *Repository) InsertAdvice(ctx context.Context, a core.Advice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO spending_advice (id, user_id, transaction_id, advice_type, advice_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.UserID.String(), a.TransactionID.String(),
		string(a.Type), a.Text, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert advice: %w", err)
	}

	slog.InfoContext(ctx, "Advice saved",
		"advice_id", a.ID,
		"transaction_id", a.TransactionID,
		"advice_type", a.Type)
	return nil
}

func (r *Repository) ListAdvice(ctx context.Context, userID uuid.UUID, limit int) ([]core.Advice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, transaction_id, advice_type, advice_text, created_at
		   FROM spending_advice
		  WHERE user_id = ?
		  ORDER BY created_at DESC
		  LIMIT ?`,
		userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("select advice: %w", err)
	}
	defer rows.Close()

	var out []core.Advice
	for rows.Next() {
		var (
			a               core.Advice
			id, owner, txID string
			adviceType      string
		)
		if err := rows.Scan(&id, &owner, &txID, &adviceType, &a.Text, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan advice: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse advice id: %w", err)
		}
		if a.UserID, err = uuid.Parse(owner); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if a.TransactionID, err = uuid.Parse(txID); err != nil {
			return nil, fmt.Errorf("parse transaction id: %w", err)
		}
		a.Type = core.AdviceType(adviceType)
		out = append(out, a)
	}
	return out, rows.Err()
}
