package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AchievementLoginStreak      = "login_streak"
	AchievementSavingsMilestone = "savings_milestone"
)

// Achievement is a one-time gamification award. Uniqueness per user is on
// (type, name), so re-running the sweep never duplicates an award.
type Achievement struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        string
	Name        string
	Description string
	DaysCount   int
	Amount      decimal.Decimal
	EarnedAt    time.Time
}

// BuckEntry is one row of the virtual-currency ledger. Balance is the ledger
// sum; entries are append-only.
type BuckEntry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Amount      int64
	Description string
	CreatedAt   time.Time
}
