package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	GoodHabit  AdviceType = "good_habit"
	BadHabit   AdviceType = "bad_habit"
	Suggestion AdviceType = "suggestion"
)

type (
	TransactionType string

	AdviceType string

	// ParsedTransaction is the structured result of a successful SMS parse.
	// Merchant may be empty when no merchant phrase was found.
	ParsedTransaction struct {
		Amount      decimal.Decimal
		Type        TransactionType
		Category    string
		Description string
		Merchant    string
		Date        time.Time
	}

	// Transaction is a persisted transaction record. SMSBody holds the raw
	// message for imported transactions and is empty for manual entries.
	Transaction struct {
		ID          uuid.UUID
		UserID      uuid.UUID
		Amount      decimal.Decimal
		Type        TransactionType
		Category    string
		Description string
		Merchant    string
		SMSBody     string
		Date        time.Time
		CreatedAt   time.Time
	}

	// RecentTransaction is a read-only row from the bounded history window
	// consumed by the advice generator.
	RecentTransaction struct {
		Amount   decimal.Decimal
		Category string
		Type     TransactionType
		Date     time.Time
	}

	Goal struct {
		ID            uuid.UUID
		UserID        uuid.UUID
		Title         string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		TargetDate    time.Time
		Active        bool
		CreatedAt     time.Time
	}

	Advice struct {
		ID            uuid.UUID
		UserID        uuid.UUID
		TransactionID uuid.UUID
		Type          AdviceType
		Text          string
		CreatedAt     time.Time
	}

	User struct {
		ID           uuid.UUID
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyTitle      = errors.New("empty goal title")
	ErrEmptyEmail      = errors.New("empty email")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (a AdviceType) Valid() bool {
	return a == GoodHabit || a == BadHabit || a == Suggestion
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !ValidCategory(t.Category, t.Type) {
		return ErrInvalidCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Title)) == 0 {
		return ErrEmptyTitle
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (u User) Validate() error {
	if len(strings.TrimSpace(u.Email)) == 0 {
		return ErrEmptyEmail
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("malformed email")
	}
	return nil
}
