package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

var streakMilestones = []int{3, 5, 7, 14, 30}

var savingsMilestones = []int64{100, 500, 1000, 5000, 10000}

var (
	ErrInvalidBuckAmount = errors.New("buck amount must be positive")
	ErrEmptyDescription  = errors.New("empty description")
)

// RewardsOverview is the gamification snapshot surfaced on the dashboard.
type RewardsOverview struct {
	Streak       int
	BuckBalance  int64
	Achievements []core.Achievement
}

// RewardsService keeps the gamification bookkeeping: login streaks,
// achievement milestones, and the bucks ledger.
type RewardsService struct {
	store RewardsStore
	users UserLister
}

func NewRewardsService(store RewardsStore, users UserLister) *RewardsService {
	return &RewardsService{store: store, users: users}
}

// RecordLogin marks the login day and immediately sweeps for newly earned
// achievements, mirroring the on-login check in the dashboard flow.
func (s *RewardsService) RecordLogin(ctx context.Context, userID uuid.UUID, now time.Time) error {
	if err := s.store.RecordLogin(ctx, userID, now); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	if _, err := s.Sweep(ctx, userID, now); err != nil {
		// The login itself succeeded; a failed sweep is retried by the
		// scheduled run.
		slog.ErrorContext(ctx, "Achievement sweep after login failed",
			"user_id", userID, "error", err)
	}
	return nil
}

// Sweep awards any login-streak and savings milestones the user has crossed
// but not yet earned. Safe to run repeatedly.
func (s *RewardsService) Sweep(ctx context.Context, userID uuid.UUID, now time.Time) ([]core.Achievement, error) {
	streak, err := s.store.LoginStreak(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("login streak: %w", err)
	}

	totalSaved, err := s.store.TotalSaved(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("total saved: %w", err)
	}

	existing, err := s.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	earnedNames := make(map[string]bool, len(existing))
	for _, a := range existing {
		earnedNames[a.Type+"/"+a.Name] = true
	}

	var earned []core.Achievement
	for _, milestone := range streakMilestones {
		if streak >= milestone && !earnedNames[core.AchievementLoginStreak+"/"+fmt.Sprintf("%d Day Login Streak", milestone)] {
			earned = append(earned, core.Achievement{
				ID:          uuid.New(),
				UserID:      userID,
				Type:        core.AchievementLoginStreak,
				Name:        fmt.Sprintf("%d Day Login Streak", milestone),
				Description: fmt.Sprintf("Logged in for %d consecutive days", milestone),
				DaysCount:   milestone,
				EarnedAt:    now.UTC(),
			})
		}
	}
	for _, milestone := range savingsMilestones {
		if totalSaved.GreaterThanOrEqual(decimal.NewFromInt(milestone)) &&
			!earnedNames[core.AchievementSavingsMilestone+"/$"+groupThousands(milestone)+" Saved"] {
			earned = append(earned, core.Achievement{
				ID:          uuid.New(),
				UserID:      userID,
				Type:        core.AchievementSavingsMilestone,
				Name:        fmt.Sprintf("$%s Saved", groupThousands(milestone)),
				Description: fmt.Sprintf("Reached $%s in total savings", groupThousands(milestone)),
				Amount:      decimal.NewFromInt(milestone),
				EarnedAt:    now.UTC(),
			})
		}
	}

	if len(earned) == 0 {
		return nil, nil
	}

	inserted, err := s.store.InsertAchievements(ctx, earned)
	if err != nil {
		return nil, fmt.Errorf("insert achievements: %w", err)
	}
	if inserted > 0 {
		slog.InfoContext(ctx, "Achievements awarded",
			"user_id", userID, "count", inserted)
	}
	return earned, nil
}

// SweepAll runs the achievement sweep for every user; the scheduled rewards
// job calls this daily. One user's failure does not stop the others.
func (s *RewardsService) SweepAll(ctx context.Context, now time.Time) error {
	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, userID := range userIDs {
		if _, err := s.Sweep(ctx, userID, now); err != nil {
			slog.ErrorContext(ctx, "Achievement sweep failed",
				"user_id", userID, "error", err)
		}
	}
	return nil
}

// AwardBucks appends to the virtual-currency ledger.
func (s *RewardsService) AwardBucks(ctx context.Context, userID uuid.UUID, amount int64, description string) error {
	if amount <= 0 {
		return ErrInvalidBuckAmount
	}
	if description == "" {
		return ErrEmptyDescription
	}

	entry := core.BuckEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AwardBucks(ctx, entry); err != nil {
		return fmt.Errorf("award bucks: %w", err)
	}
	return nil
}

// Overview assembles streak, balance, and achievements for the dashboard.
func (s *RewardsService) Overview(ctx context.Context, userID uuid.UUID, now time.Time) (RewardsOverview, error) {
	streak, err := s.store.LoginStreak(ctx, userID, now)
	if err != nil {
		return RewardsOverview{}, fmt.Errorf("login streak: %w", err)
	}
	balance, err := s.store.BuckBalance(ctx, userID)
	if err != nil {
		return RewardsOverview{}, fmt.Errorf("buck balance: %w", err)
	}
	achievements, err := s.store.ListAchievements(ctx, userID)
	if err != nil {
		return RewardsOverview{}, fmt.Errorf("list achievements: %w", err)
	}

	return RewardsOverview{
		Streak:       streak,
		BuckBalance:  balance,
		Achievements: achievements,
	}, nil
}

// groupThousands renders 10000 as "10,000" to match the milestone names.
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
