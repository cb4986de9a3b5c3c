package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"log/slog"

	"finsight/internal/auth"
	"finsight/internal/core"
	applog "finsight/internal/log"
	"finsight/internal/storage"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	user := core.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := user.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.users.CreateUser(r.Context(), user); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create user", applog.FieldError, err)
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	token, err := s.auth.IssueToken(user.ID, s.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, UserID: user.ID.String()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.IssueToken(user.ID, s.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	// Login streaks and streak achievements piggyback on sign-in. Failure
	// must not block the login itself.
	if s.rewards != nil {
		if err := s.rewards.RecordLogin(r.Context(), user.ID, s.now()); err != nil {
			slog.WarnContext(r.Context(), "Failed to record login",
				applog.FieldUserID, user.ID.String(),
				applog.FieldError, err)
		}
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, UserID: user.ID.String()})
}
