package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finsight/internal/core"
	"finsight/internal/sms"
)

// TransactionService persists transactions and announces them on the queue.
// The local write is authoritative; a failed publish is logged and tolerated
// so the request never fails after the transaction is saved.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
	parser    *sms.Parser
}

func NewTransactionService(store TransactionStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		parser:    sms.NewParser(),
	}
}

// Create validates and persists a transaction, then publishes the created
// event. ID and CreatedAt are assigned here.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction, now time.Time) (core.Transaction, error) {
	t.ID = uuid.New()
	t.CreatedAt = now.UTC()
	if t.Date.IsZero() {
		t.Date = now.UTC()
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.store.InsertTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, t)
	return t, nil
}

// CreateFromSMS parses one bank message and persists the result. The raw
// message is stored alongside the transaction for audit and display. A parse
// failure surfaces as sms.ErrUnparseable and leaves no trace in storage.
func (s *TransactionService) CreateFromSMS(ctx context.Context, userID uuid.UUID, raw string, now time.Time) (core.Transaction, error) {
	parsed, err := s.parser.Parse(raw, now)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse sms: %w", err)
	}

	merchant := parsed.Merchant
	if merchant == "" {
		merchant = "Unknown"
	}

	return s.Create(ctx, core.Transaction{
		UserID:      userID,
		Amount:      parsed.Amount,
		Type:        parsed.Type,
		Category:    parsed.Category,
		Description: parsed.Description,
		Merchant:    merchant,
		SMSBody:     raw,
		Date:        parsed.Date,
	}, now)
}

func (s *TransactionService) publish(ctx context.Context, t core.Transaction) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping transaction created message",
			"transaction_id", t.ID)
		return
	}
	if err := s.publisher.PublishTransactionCreated(ctx, t.ID, t.UserID, t.Type); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction created message",
			"transaction_id", t.ID, "error", err)
	}
}
