package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finsight/internal/auth"
	"finsight/internal/core"
	"finsight/internal/services"
	"finsight/internal/storage"
)

type fakeUserStore struct {
	users map[string]core.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]core.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, u core.User) error {
	if _, exists := f.users[u.Email]; exists {
		return storage.ErrNotFound
	}
	f.users[u.Email] = u
	return nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	u, ok := f.users[email]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return u, nil
}

type fakeTransactionAPI struct {
	created []core.Transaction
	err     error
}

func (f *fakeTransactionAPI) Create(_ context.Context, t core.Transaction, now time.Time) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	t.ID = uuid.New()
	t.CreatedAt = now
	f.created = append(f.created, t)
	return t, nil
}

func (f *fakeTransactionAPI) CreateFromSMS(_ context.Context, userID uuid.UUID, raw string, now time.Time) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	t := core.Transaction{
		ID:       uuid.New(),
		UserID:   userID,
		Amount:   decimal.RequireFromString("250.00"),
		Type:     core.Expense,
		Category: core.CategoryCoffee,
		SMSBody:  raw,
		Date:     now,
	}
	f.created = append(f.created, t)
	return t, nil
}

type fakeGoalStore struct {
	goals map[uuid.UUID]core.Goal
}

func newFakeGoalStore() *fakeGoalStore {
	return &fakeGoalStore{goals: make(map[uuid.UUID]core.Goal)}
}

func (f *fakeGoalStore) CreateGoal(_ context.Context, g core.Goal) error {
	f.goals[g.ID] = g
	return nil
}

func (f *fakeGoalStore) ListGoals(_ context.Context, userID uuid.UUID) ([]core.Goal, error) {
	var out []core.Goal
	for _, g := range f.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGoalStore) ContributeToGoal(_ context.Context, userID, id uuid.UUID, amount decimal.Decimal) (core.Goal, error) {
	g, ok := f.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, storage.ErrNotFound
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	f.goals[id] = g
	return g, nil
}

type fakeRewardsAPI struct {
	logins int
}

func (f *fakeRewardsAPI) RecordLogin(_ context.Context, _ uuid.UUID, _ time.Time) error {
	f.logins++
	return nil
}

func (f *fakeRewardsAPI) Overview(_ context.Context, _ uuid.UUID, _ time.Time) (services.RewardsOverview, error) {
	return services.RewardsOverview{Streak: 3, BuckBalance: 50}, nil
}

func (f *fakeRewardsAPI) AwardBucks(_ context.Context, _ uuid.UUID, amount int64, description string) error {
	if amount <= 0 {
		return services.ErrInvalidBuckAmount
	}
	if description == "" {
		return services.ErrEmptyDescription
	}
	return nil
}

type serverFixture struct {
	srv     *Server
	auth    *auth.Manager
	users   *fakeUserStore
	txAPI   *fakeTransactionAPI
	goals   *fakeGoalStore
	rewards *fakeRewardsAPI
	userID  uuid.UUID
	token   string
}

func newFixture(t *testing.T) *serverFixture {
	t.Helper()

	manager := auth.NewManager("test-secret-test-secret-32bytes!", time.Hour)
	users := newFakeUserStore()
	txAPI := &fakeTransactionAPI{}
	goals := newFakeGoalStore()
	rewards := &fakeRewardsAPI{}

	srv := NewServer(":0", Deps{
		Auth:         manager,
		Users:        users,
		Transactions: txAPI,
		Goals:        goals,
		Rewards:      rewards,
	})
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})

	userID := uuid.New()
	token, err := manager.IssueToken(userID, time.Now())
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	return &serverFixture{
		srv:     srv,
		auth:    manager,
		users:   users,
		txAPI:   txAPI,
		goals:   goals,
		rewards: rewards,
		userID:  userID,
		token:   token,
	}
}

func (f *serverFixture) request(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	rec := httptest.NewRecorder()
	f.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_RequiresAuth(t *testing.T) {
	f := newFixture(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/transactions"},
		{http.MethodGet, "/api/goals"},
		{http.MethodGet, "/api/rewards"},
	}
	for _, p := range paths {
		rec := f.request(t, p.method, p.path, nil, false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", p.method, p.path, rec.Code)
		}
	}
}

func TestServer_RejectsBadToken(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	f.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestServer_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/register",
		map[string]string{"email": "Ada@Example.com", "password": "correct horse"}, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var created authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if created.Token == "" {
		t.Error("register response missing token")
	}

	// Email is normalized to lower case on both paths.
	rec = f.request(t, http.MethodPost, "/api/login",
		map[string]string{"email": "ada@example.com", "password": "correct horse"}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if f.rewards.logins != 1 {
		t.Errorf("recorded %d logins, want 1", f.rewards.logins)
	}

	rec = f.request(t, http.MethodPost, "/api/login",
		map[string]string{"email": "ada@example.com", "password": "wrong"}, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}
}

func TestServer_RegisterRejectsShortPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/register",
		map[string]string{"email": "a@b.com", "password": "short"}, false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_CreateTransaction(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/transactions", map[string]any{
		"amount":      "42.50",
		"type":        "expense",
		"description": "Lunch",
		"date":        "2024-12-15",
	}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	if len(f.txAPI.created) != 1 {
		t.Fatalf("created %d transactions, want 1", len(f.txAPI.created))
	}
	tx := f.txAPI.created[0]
	if tx.UserID != f.userID {
		t.Errorf("UserID = %s, want token subject %s", tx.UserID, f.userID)
	}
	if tx.Category == "" {
		t.Error("category must be auto-assigned when omitted")
	}
}

func TestServer_CreateTransactionRejectsBadType(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/transactions", map[string]any{
		"amount": "42.50",
		"type":   "transfer",
	}, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(f.txAPI.created) != 0 {
		t.Error("invalid type must not reach the service")
	}
}

func TestServer_GoalLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/goals", map[string]any{
		"title":         "New Laptop",
		"target_amount": "1500",
	}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var goal goalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &goal); err != nil {
		t.Fatalf("decode goal: %v", err)
	}

	rec = f.request(t, http.MethodPost, "/api/goals/"+goal.ID+"/contribute",
		map[string]any{"amount": "250"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("contribute status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var updated goalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated goal: %v", err)
	}
	if !updated.CurrentAmount.Equal(decimal.RequireFromString("250")) {
		t.Errorf("CurrentAmount = %s, want 250", updated.CurrentAmount)
	}
}

func TestServer_ContributeUnknownGoal(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/goals/"+uuid.NewString()+"/contribute",
		map[string]any{"amount": "10"}, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServer_RewardsOverview(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/rewards", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp rewardsOverviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode rewards: %v", err)
	}
	if resp.Streak != 3 || resp.BuckBalance != 50 {
		t.Errorf("overview = %+v, want streak 3 balance 50", resp)
	}
}

func TestServer_AwardBucksValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/rewards/bucks",
		map[string]any{"amount": 0, "description": "x"}, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = f.request(t, http.MethodPost, "/api/rewards/bucks",
		map[string]any{"amount": 10, "description": "Budget kept"}, true)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"line\nbreak", "line\nbreak"},
		{"null\x00byte", "nullbyte"},
		{"bell\x07char", "bellchar"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, ok := bearerToken(req); ok {
		t.Error("missing header must not yield a token")
	}

	req.Header.Set("Authorization", "Basic abc")
	if _, ok := bearerToken(req); ok {
		t.Error("non-bearer scheme must not yield a token")
	}

	req.Header.Set("Authorization", "Bearer abc123")
	token, ok := bearerToken(req)
	if !ok || token != "abc123" {
		t.Errorf("bearerToken = %q, %v, want abc123, true", token, ok)
	}
}
