package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO savings_goals
		   (id, user_id, title, target_amount, current_amount, target_date, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.UserID.String(), g.Title,
		g.TargetAmount.String(), g.CurrentAmount.String(),
		g.TargetDate, boolToInt(g.Active), g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal created",
		"goal_id", g.ID,
		"user_id", g.UserID,
		"title", g.Title,
		"target_amount", g.TargetAmount.String())
	return nil
}

const goalColumns = `id, user_id, title, target_amount, current_amount, target_date, is_active, created_at`

func (r *Repository) scanGoal(row interface{ Scan(...any) error }) (core.Goal, error) {
	var (
		g               core.Goal
		id, userID      string
		target, current string
		active          int
		targetDate      sql.NullTime
	)
	err := row.Scan(&id, &userID, &g.Title, &target, &current, &targetDate, &active, &g.CreatedAt)
	if err != nil {
		return core.Goal{}, err
	}

	if g.ID, err = uuid.Parse(id); err != nil {
		return core.Goal{}, fmt.Errorf("parse goal id: %w", err)
	}
	if g.UserID, err = uuid.Parse(userID); err != nil {
		return core.Goal{}, fmt.Errorf("parse user id: %w", err)
	}
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return core.Goal{}, fmt.Errorf("parse target amount: %w", err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(current); err != nil {
		return core.Goal{}, fmt.Errorf("parse current amount: %w", err)
	}
	if targetDate.Valid {
		g.TargetDate = targetDate.Time
	}
	g.Active = active != 0
	return g, nil
}

func (r *Repository) GetGoal(ctx context.Context, userID, id uuid.UUID) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())

	g, err := r.scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("select goal: %w", err)
	}
	return g, nil
}

func (r *Repository) ListGoals(ctx context.Context, userID uuid.UUID) ([]core.Goal, error) {
	return r.queryGoals(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? ORDER BY created_at`,
		userID.String())
}

// ActiveGoals returns the user's active goals, oldest first. The advice
// generator consults only the first, so this ordering is part of the
// advice contract.
func (r *Repository) ActiveGoals(ctx context.Context, userID uuid.UUID) ([]core.Goal, error) {
	return r.queryGoals(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? AND is_active = 1 ORDER BY created_at`,
		userID.String())
}

func (r *Repository) queryGoals(ctx context.Context, query string, args ...any) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := r.scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ContributeToGoal adds amount to a goal's saved total. The read and write
// run in one SQL transaction so concurrent contributions cannot lose updates.
func (r *Repository) ContributeToGoal(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (core.Goal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, fmt.Errorf("begin contribute tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	g, err := r.scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("select goal: %w", err)
	}

	g.CurrentAmount = g.CurrentAmount.Add(amount)
	if _, err := tx.ExecContext(ctx,
		`UPDATE savings_goals SET current_amount = ? WHERE id = ?`,
		g.CurrentAmount.String(), id.String()); err != nil {
		return core.Goal{}, fmt.Errorf("update goal amount: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Goal{}, fmt.Errorf("commit contribute tx: %w", err)
	}

	slog.InfoContext(ctx, "Goal contribution recorded",
		"goal_id", id,
		"user_id", userID,
		"amount", amount.String(),
		"current_amount", g.CurrentAmount.String())
	return g, nil
}

// TotalSaved sums current_amount over all of a user's goals, for the
// savings-milestone achievement sweep.
func (r *Repository) TotalSaved(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT current_amount FROM savings_goals WHERE user_id = ?`, userID.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("select goal amounts: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return decimal.Decimal{}, fmt.Errorf("scan goal amount: %w", err)
		}
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("parse goal amount: %w", err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
