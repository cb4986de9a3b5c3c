package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"log/slog"

	applog "finsight/internal/log"
	"finsight/internal/services"
)

type achievementResponse struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	DaysCount   int             `json:"days_count,omitempty"`
	Amount      decimal.Decimal `json:"amount,omitempty"`
	EarnedAt    time.Time       `json:"earned_at"`
}

type rewardsOverviewResponse struct {
	Streak       int                   `json:"streak"`
	BuckBalance  int64                 `json:"buck_balance"`
	Achievements []achievementResponse `json:"achievements"`
}

type awardBucksRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) handleRewardsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.rewards.Overview(r.Context(), userIDFromContext(r.Context()), s.now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load rewards overview", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load rewards")
		return
	}

	resp := rewardsOverviewResponse{
		Streak:       overview.Streak,
		BuckBalance:  overview.BuckBalance,
		Achievements: make([]achievementResponse, 0, len(overview.Achievements)),
	}
	for _, a := range overview.Achievements {
		resp.Achievements = append(resp.Achievements, achievementResponse{
			Type:        a.Type,
			Name:        a.Name,
			Description: a.Description,
			DaysCount:   a.DaysCount,
			Amount:      a.Amount,
			EarnedAt:    a.EarnedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAwardBucks(w http.ResponseWriter, r *http.Request) {
	var req awardBucksRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	description := sanitizeInput(req.Description)
	err := s.rewards.AwardBucks(r.Context(), userIDFromContext(r.Context()), req.Amount, description)
	if err != nil {
		if errors.Is(err, services.ErrInvalidBuckAmount) || errors.Is(err, services.ErrEmptyDescription) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to award bucks", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to award bucks")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
