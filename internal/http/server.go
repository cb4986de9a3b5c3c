// Package http exposes the JSON API: auth, transactions, SMS import, goals,
// insights, advice, and rewards.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"log/slog"

	"finsight/internal/auth"
	"finsight/internal/core"
	applog "finsight/internal/log"
	"finsight/internal/services"
)

// Ports for the collaborators behind the handlers. The SQLite repository and
// the services satisfy them; tests plug in fakes.
type (
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) error
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
	}

	TransactionAPI interface {
		Create(ctx context.Context, t core.Transaction, now time.Time) (core.Transaction, error)
		CreateFromSMS(ctx context.Context, userID uuid.UUID, raw string, now time.Time) (core.Transaction, error)
	}

	ImportAPI interface {
		Import(ctx context.Context, userID uuid.UUID, messages []string, now time.Time) []services.LineResult
	}

	TransactionReader interface {
		ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]core.Transaction, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) error
		ListGoals(ctx context.Context, userID uuid.UUID) ([]core.Goal, error)
		ContributeToGoal(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (core.Goal, error)
	}

	AdviceReader interface {
		ListAdvice(ctx context.Context, userID uuid.UUID, limit int) ([]core.Advice, error)
	}

	InsightsReader interface {
		MonthOverview(ctx context.Context, userID uuid.UUID, year, month int) (core.MonthOverview, error)
	}

	RewardsAPI interface {
		RecordLogin(ctx context.Context, userID uuid.UUID, now time.Time) error
		Overview(ctx context.Context, userID uuid.UUID, now time.Time) (services.RewardsOverview, error)
		AwardBucks(ctx context.Context, userID uuid.UUID, amount int64, description string) error
	}
)

// Deps bundles the collaborators for NewServer.
type Deps struct {
	Auth         *auth.Manager
	Users        UserStore
	Transactions TransactionAPI
	Importer     ImportAPI
	TxReader     TransactionReader
	Goals        GoalStore
	Advice       AdviceReader
	Insights     InsightsReader
	Rewards      RewardsAPI
}

type Server struct {
	http.Server

	auth         *auth.Manager
	users        UserStore
	transactions TransactionAPI
	importer     ImportAPI
	txReader     TransactionReader
	goals        GoalStore
	advice       AdviceReader
	insights     InsightsReader
	rewards      RewardsAPI

	rateLimiter *rateLimiter
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		auth:         deps.Auth,
		users:        deps.Users,
		transactions: deps.Transactions,
		importer:     deps.Importer,
		txReader:     deps.TxReader,
		goals:        deps.Goals,
		advice:       deps.Advice,
		insights:     deps.Insights,
		rewards:      deps.Rewards,
		rateLimiter:  newRateLimiter(),
		now:          time.Now,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.withMiddleware(s.handleLogin))

	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.requireAuth(s.handleCreateTransaction)))
	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.requireAuth(s.handleListTransactions)))
	mux.HandleFunc("POST /api/sms/parse", s.withMiddleware(s.requireAuth(s.handleParseSMS)))
	mux.HandleFunc("POST /api/sms/import", s.withMiddleware(s.requireAuth(s.handleImportSMS)))

	mux.HandleFunc("POST /api/goals", s.withMiddleware(s.requireAuth(s.handleCreateGoal)))
	mux.HandleFunc("GET /api/goals", s.withMiddleware(s.requireAuth(s.handleListGoals)))
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.withMiddleware(s.requireAuth(s.handleContributeGoal)))

	mux.HandleFunc("GET /api/advice", s.withMiddleware(s.requireAuth(s.handleListAdvice)))
	mux.HandleFunc("GET /api/insights/month", s.withMiddleware(s.requireAuth(s.handleMonthInsights)))

	mux.HandleFunc("GET /api/rewards", s.withMiddleware(s.requireAuth(s.handleRewardsOverview)))
	mux.HandleFunc("POST /api/rewards/bucks", s.withMiddleware(s.requireAuth(s.handleAwardBucks)))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withMiddleware adds request-id tracing, security headers, rate limiting on
// writes, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userIDKey    ctxKey = "user_id"
)

// requireAuth validates the bearer token and stores the user id in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.auth.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
