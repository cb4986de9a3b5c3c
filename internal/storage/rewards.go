package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

const loginDateLayout = "2006-01-02"

// RecordLogin marks the calendar day as a login day. Repeated logins on the
// same day are a no-op.
func (r *Repository) RecordLogin(ctx context.Context, userID uuid.UUID, day time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO login_events (user_id, login_date) VALUES (?, ?)`,
		userID.String(), day.UTC().Format(loginDateLayout))
	if err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}
	return nil
}

// LoginStreak counts consecutive login days ending today or yesterday
// relative to the supplied clock.
func (r *Repository) LoginStreak(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT login_date FROM login_events WHERE user_id = ? ORDER BY login_date DESC`,
		userID.String())
	if err != nil {
		return 0, fmt.Errorf("select login events: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return 0, fmt.Errorf("scan login date: %w", err)
		}
		d, err := time.Parse(loginDateLayout, s)
		if err != nil {
			return 0, fmt.Errorf("parse login date: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(days) == 0 {
		return 0, nil
	}

	today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	// A streak survives until a full day is missed.
	if days[0].Before(today.AddDate(0, 0, -1)) {
		return 0, nil
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak, nil
}

func (r *Repository) ListAchievements(ctx context.Context, userID uuid.UUID) ([]core.Achievement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, achievement_type, achievement_name, description, days_count, amount, earned_at
		   FROM achievements
		  WHERE user_id = ?
		  ORDER BY earned_at DESC`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("select achievements: %w", err)
	}
	defer rows.Close()

	var out []core.Achievement
	for rows.Next() {
		var (
			a         core.Achievement
			id, owner string
			amount    string
		)
		if err := rows.Scan(&id, &owner, &a.Type, &a.Name, &a.Description, &a.DaysCount, &amount, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse achievement id: %w", err)
		}
		if a.UserID, err = uuid.Parse(owner); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if a.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse achievement amount: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertAchievements stores new awards, skipping any the user already earned,
// and reports how many were actually inserted.
func (r *Repository) InsertAchievements(ctx context.Context, achievements []core.Achievement) (int, error) {
	inserted := 0
	for _, a := range achievements {
		res, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO achievements
			   (id, user_id, achievement_type, achievement_name, description, days_count, amount, earned_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID.String(), a.UserID.String(), a.Type, a.Name, a.Description,
			a.DaysCount, a.Amount.String(), a.EarnedAt)
		if err != nil {
			return inserted, fmt.Errorf("insert achievement: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("achievement rows affected: %w", err)
		}
		if n > 0 {
			inserted++
			slog.InfoContext(ctx, "Achievement awarded",
				"user_id", a.UserID,
				"achievement_type", a.Type,
				"achievement_name", a.Name)
		}
	}
	return inserted, nil
}

func (r *Repository) AwardBucks(ctx context.Context, e core.BuckEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO buck_ledger (id, user_id, amount, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID.String(), e.Amount, e.Description, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert buck entry: %w", err)
	}

	slog.InfoContext(ctx, "Bucks awarded",
		"user_id", e.UserID,
		"amount", e.Amount,
		"description", e.Description)
	return nil
}

func (r *Repository) BuckBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM buck_ledger WHERE user_id = ?`,
		userID.String()).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum buck ledger: %w", err)
	}
	return balance, nil
}
