package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finsight/internal/core"
)

// TransactionCreatedMessage announces a newly persisted transaction. It
// carries only identifiers; the worker reloads the full record and the
// user's context from storage before generating advice.
type TransactionCreatedMessage struct {
	TransactionID uuid.UUID            `json:"transaction_id"`
	UserID        uuid.UUID            `json:"user_id"`
	Type          core.TransactionType `json:"type"`
	Timestamp     time.Time            `json:"timestamp"`
}

func NewTransactionCreatedMessage(txID, userID uuid.UUID, txType core.TransactionType) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		TransactionID: txID,
		UserID:        userID,
		Type:          txType,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction created message: %w", err)
	}
	return body, nil
}

func TransactionCreatedMessageFromJSON(body []byte) (*TransactionCreatedMessage, error) {
	var m TransactionCreatedMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("unmarshal transaction created message: %w", err)
	}
	if m.TransactionID == uuid.Nil {
		return nil, fmt.Errorf("transaction created message missing transaction id")
	}
	if m.UserID == uuid.Nil {
		return nil, fmt.Errorf("transaction created message missing user id")
	}
	return &m, nil
}
