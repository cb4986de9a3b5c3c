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

type adviceResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Type          string    `json:"type"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
}

type categoryAmountResponse struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type monthOverviewResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Income     decimal.Decimal          `json:"income"`
	Expenses   decimal.Decimal          `json:"expenses"`
	Net        decimal.Decimal          `json:"net"`
	ByCategory []categoryAmountResponse `json:"by_category"`
}

func (s *Server) handleListAdvice(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	items, err := s.advice.ListAdvice(r.Context(), userIDFromContext(r.Context()), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list advice", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list advice")
		return
	}

	out := make([]adviceResponse, 0, len(items))
	for _, a := range items {
		out = append(out, adviceResponse{
			ID:            a.ID.String(),
			TransactionID: a.TransactionID.String(),
			Type:          string(a.Type),
			Text:          a.Text,
			CreatedAt:     a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonthInsights(w http.ResponseWriter, r *http.Request) {
	now := s.now().UTC()
	year, month := now.Year(), int(now.Month())

	if raw := r.URL.Query().Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2000 || n > 2100 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 12 {
			writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
			return
		}
		month = n
	}

	overview, err := s.insights.MonthOverview(r.Context(), userIDFromContext(r.Context()), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build month overview", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to build month overview")
		return
	}

	writeJSON(w, http.StatusOK, toMonthOverviewResponse(overview))
}

func toMonthOverviewResponse(o core.MonthOverview) monthOverviewResponse {
	resp := monthOverviewResponse{
		Year:       o.Year,
		Month:      o.Month,
		Income:     o.Income,
		Expenses:   o.Expenses,
		Net:        o.Income.Sub(o.Expenses),
		ByCategory: make([]categoryAmountResponse, 0, len(o.ByCategory)),
	}
	for _, c := range o.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountResponse{Name: c.Name, Amount: c.Amount})
	}
	return resp
}
