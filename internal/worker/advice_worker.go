// Package worker consumes transaction.created messages and runs the
// downstream side of the pipeline: advice generation for expenses, and
// optional spreadsheet export.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finsight/internal/advice"
	"finsight/internal/amqp"
	"finsight/internal/core"
	"finsight/internal/storage"
)

// recentWindow bounds the history slice fed to the advice generator. The
// window is the denominator for the share and monthly-sum rules, so changing
// it changes advice behavior.
const recentWindow = 20

type (
	Store interface {
		GetTransactionByID(ctx context.Context, id uuid.UUID) (core.Transaction, error)
		RecentExpenses(ctx context.Context, userID uuid.UUID, limit int) ([]core.RecentTransaction, error)
		ActiveGoals(ctx context.Context, userID uuid.UUID) ([]core.Goal, error)
		InsertAdvice(ctx context.Context, a core.Advice) error
	}

	// RowAppender exports a transaction row to an external sheet. Optional.
	RowAppender interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}
)

type AdviceWorker struct {
	store     Store
	generator *advice.Generator
	exporter  RowAppender
	now       func() time.Time
}

// NewAdviceWorker wires the consumer side. exporter may be nil when
// spreadsheet export is not configured.
func NewAdviceWorker(store Store, exporter RowAppender) *AdviceWorker {
	return &AdviceWorker{
		store:     store,
		generator: advice.NewGenerator(),
		exporter:  exporter,
		now:       time.Now,
	}
}

// HandleTransactionCreated processes one queue message. A missing
// transaction is dropped (the row was deleted before we ran); other storage
// errors propagate so the delivery is requeued.
func (w *AdviceWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	tx, err := w.store.GetTransactionByID(ctx, msg.TransactionID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction vanished before processing",
			"transaction_id", msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if tx.Type == core.Expense {
		if err := w.generateAdvice(ctx, tx); err != nil {
			return err
		}
	}

	w.export(ctx, tx)
	return nil
}

func (w *AdviceWorker) generateAdvice(ctx context.Context, tx core.Transaction) error {
	recent, err := w.store.RecentExpenses(ctx, tx.UserID, recentWindow)
	if err != nil {
		return fmt.Errorf("load recent expenses: %w", err)
	}

	goals, err := w.store.ActiveGoals(ctx, tx.UserID)
	if err != nil {
		return fmt.Errorf("load active goals: %w", err)
	}

	now := w.now().UTC()
	a := w.generator.Generate(tx, recent, goals, now)
	a.ID = uuid.New()
	a.CreatedAt = now

	if err := w.store.InsertAdvice(ctx, a); err != nil {
		return fmt.Errorf("save advice: %w", err)
	}

	slog.InfoContext(ctx, "Advice generated",
		"transaction_id", tx.ID,
		"user_id", tx.UserID,
		"advice_type", a.Type)
	return nil
}

// export appends the row to the configured sheet. Export is best-effort: the
// advice is already saved, so a sheet failure must not requeue the message.
func (w *AdviceWorker) export(ctx context.Context, tx core.Transaction) {
	if w.exporter == nil {
		return
	}

	ref, err := w.exporter.AppendTransaction(ctx, tx)
	if err != nil {
		slog.ErrorContext(ctx, "Sheet export failed",
			"transaction_id", tx.ID, "error", err)
		return
	}
	slog.InfoContext(ctx, "Transaction exported to sheet",
		"transaction_id", tx.ID, "row_ref", ref)
}
