package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"log/slog"

	"finsight/internal/core"
	applog "finsight/internal/log"
	"finsight/internal/storage"
)

type goalRequest struct {
	Title         string          `json:"title"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    string          `json:"target_date"`
}

type goalResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    string          `json:"target_date,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
}

type contributeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func toGoalResponse(g core.Goal) goalResponse {
	resp := goalResponse{
		ID:            g.ID.String(),
		Title:         g.Title,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Active:        g.Active,
		CreatedAt:     g.CreatedAt,
	}
	if !g.TargetDate.IsZero() {
		resp.TargetDate = g.TargetDate.Format(dateLayout)
	}
	return resp
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var targetDate time.Time
	if req.TargetDate != "" {
		parsed, err := time.Parse(dateLayout, req.TargetDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "target_date must be YYYY-MM-DD")
			return
		}
		targetDate = parsed
	}

	goal := core.Goal{
		ID:            uuid.New(),
		UserID:        userIDFromContext(r.Context()),
		Title:         sanitizeInput(req.Title),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    targetDate,
		Active:        true,
		CreatedAt:     s.now().UTC(),
	}
	if err := goal.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.goals.CreateGoal(r.Context(), goal); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create goal", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to create goal")
		return
	}

	writeJSON(w, http.StatusCreated, toGoalResponse(goal))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.ListGoals(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list goals", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list goals")
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleContributeGoal(w http.ResponseWriter, r *http.Request) {
	goalID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	var req contributeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	goal, err := s.goals.ContributeToGoal(r.Context(), userIDFromContext(r.Context()), goalID, req.Amount)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to contribute to goal",
			applog.FieldGoalID, goalID.String(),
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to contribute to goal")
		return
	}

	writeJSON(w, http.StatusOK, toGoalResponse(goal))
}
