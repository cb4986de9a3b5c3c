package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"log/slog"

	"finsight/internal/core"
	applog "finsight/internal/log"
)

const dateLayout = "2006-01-02"

type transactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Merchant    string          `json:"merchant"`
	Date        string          `json:"date"`
}

type transactionResponse struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Merchant    string          `json:"merchant,omitempty"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID.String(),
		Amount:      t.Amount,
		Type:        string(t.Type),
		Category:    t.Category,
		Description: t.Description,
		Merchant:    t.Merchant,
		Date:        t.Date.Format(dateLayout),
		CreatedAt:   t.CreatedAt,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	txType := core.TransactionType(req.Type)
	if !txType.Valid() {
		writeError(w, http.StatusBadRequest, "type must be income or expense")
		return
	}

	date := s.now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	description := sanitizeInput(req.Description)
	merchant := sanitizeInput(req.Merchant)

	category := req.Category
	if category == "" {
		category = core.Categorize(description, merchant, txType)
	}

	tx := core.Transaction{
		UserID:      userIDFromContext(r.Context()),
		Amount:      req.Amount,
		Type:        txType,
		Category:    category,
		Description: description,
		Merchant:    merchant,
		Date:        date,
	}

	created, err := s.transactions.Create(r.Context(), tx, s.now())
	if err != nil {
		if tx.Validate() != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create transaction", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	txs, err := s.txReader.ListTransactions(r.Context(), userIDFromContext(r.Context()), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}
