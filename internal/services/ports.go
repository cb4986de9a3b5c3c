package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// Ports for the outbound collaborators. The SQLite repository satisfies the
// store interfaces; the AMQP client satisfies EventPublisher. Tests use
// in-memory fakes.
type (
	TransactionStore interface {
		InsertTransaction(ctx context.Context, t core.Transaction) error
	}

	EventPublisher interface {
		PublishTransactionCreated(ctx context.Context, txID, userID uuid.UUID, txType core.TransactionType) error
	}

	RewardsStore interface {
		RecordLogin(ctx context.Context, userID uuid.UUID, day time.Time) error
		LoginStreak(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
		ListAchievements(ctx context.Context, userID uuid.UUID) ([]core.Achievement, error)
		InsertAchievements(ctx context.Context, achievements []core.Achievement) (int, error)
		TotalSaved(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
		AwardBucks(ctx context.Context, e core.BuckEntry) error
		BuckBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	}

	UserLister interface {
		ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
	}
)
