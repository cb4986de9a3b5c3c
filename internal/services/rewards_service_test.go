package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

type fakeRewardsStore struct {
	streak       int
	totalSaved   decimal.Decimal
	achievements []core.Achievement
	logins       []time.Time
	bucks        []core.BuckEntry

	streakErr error
	insertErr error
}

func (f *fakeRewardsStore) RecordLogin(_ context.Context, _ uuid.UUID, day time.Time) error {
	f.logins = append(f.logins, day)
	return nil
}

func (f *fakeRewardsStore) LoginStreak(_ context.Context, _ uuid.UUID, _ time.Time) (int, error) {
	return f.streak, f.streakErr
}

func (f *fakeRewardsStore) ListAchievements(_ context.Context, _ uuid.UUID) ([]core.Achievement, error) {
	return f.achievements, nil
}

func (f *fakeRewardsStore) InsertAchievements(_ context.Context, achievements []core.Achievement) (int, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.achievements = append(f.achievements, achievements...)
	return len(achievements), nil
}

func (f *fakeRewardsStore) TotalSaved(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
	return f.totalSaved, nil
}

func (f *fakeRewardsStore) AwardBucks(_ context.Context, e core.BuckEntry) error {
	f.bucks = append(f.bucks, e)
	return nil
}

func (f *fakeRewardsStore) BuckBalance(_ context.Context, _ uuid.UUID) (int64, error) {
	var total int64
	for _, e := range f.bucks {
		total += e.Amount
	}
	return total, nil
}

type fakeUserLister struct {
	ids []uuid.UUID
}

func (f *fakeUserLister) ListUserIDs(_ context.Context) ([]uuid.UUID, error) {
	return f.ids, nil
}

func achievementNames(as []core.Achievement) map[string]bool {
	names := make(map[string]bool, len(as))
	for _, a := range as {
		names[a.Name] = true
	}
	return names
}

func TestRewardsService_Sweep_StreakMilestones(t *testing.T) {
	store := &fakeRewardsStore{streak: 7, totalSaved: decimal.Zero}
	svc := NewRewardsService(store, &fakeUserLister{})

	earned, err := svc.Sweep(context.Background(), uuid.New(), fixedNow)
	if err != nil {
		t.Fatalf("Sweep() error = %v, want nil", err)
	}

	// Streak 7 crosses the 3, 5 and 7 day milestones at once.
	names := achievementNames(earned)
	for _, want := range []string{"3 Day Login Streak", "5 Day Login Streak", "7 Day Login Streak"} {
		if !names[want] {
			t.Errorf("missing achievement %q in %v", want, names)
		}
	}
	if names["14 Day Login Streak"] {
		t.Error("14 day milestone must not be awarded at streak 7")
	}
}

func TestRewardsService_Sweep_SavingsMilestones(t *testing.T) {
	store := &fakeRewardsStore{totalSaved: decimal.RequireFromString("1250.00")}
	svc := NewRewardsService(store, &fakeUserLister{})

	earned, err := svc.Sweep(context.Background(), uuid.New(), fixedNow)
	if err != nil {
		t.Fatalf("Sweep() error = %v, want nil", err)
	}

	names := achievementNames(earned)
	for _, want := range []string{"$100 Saved", "$500 Saved", "$1,000 Saved"} {
		if !names[want] {
			t.Errorf("missing achievement %q in %v", want, names)
		}
	}
	if names["$5,000 Saved"] {
		t.Error("$5,000 milestone must not be awarded at $1,250 saved")
	}
}

func TestRewardsService_Sweep_SkipsAlreadyEarned(t *testing.T) {
	store := &fakeRewardsStore{
		streak: 5,
		achievements: []core.Achievement{
			{Type: core.AchievementLoginStreak, Name: "3 Day Login Streak"},
		},
	}
	svc := NewRewardsService(store, &fakeUserLister{})

	earned, err := svc.Sweep(context.Background(), uuid.New(), fixedNow)
	if err != nil {
		t.Fatalf("Sweep() error = %v, want nil", err)
	}

	names := achievementNames(earned)
	if names["3 Day Login Streak"] {
		t.Error("already earned milestone must not be re-awarded")
	}
	if !names["5 Day Login Streak"] {
		t.Error("new milestone missing from sweep result")
	}
}

func TestRewardsService_Sweep_NothingToAward(t *testing.T) {
	store := &fakeRewardsStore{streak: 1}
	svc := NewRewardsService(store, &fakeUserLister{})

	earned, err := svc.Sweep(context.Background(), uuid.New(), fixedNow)
	if err != nil {
		t.Fatalf("Sweep() error = %v, want nil", err)
	}
	if len(earned) != 0 {
		t.Errorf("earned = %v, want none at streak 1 and zero savings", earned)
	}
	if len(store.achievements) != 0 {
		t.Error("no achievements should be inserted when nothing was earned")
	}
}

func TestRewardsService_RecordLogin_SweepFailureTolerated(t *testing.T) {
	store := &fakeRewardsStore{streakErr: errors.New("storage down")}
	svc := NewRewardsService(store, &fakeUserLister{})

	if err := svc.RecordLogin(context.Background(), uuid.New(), fixedNow); err != nil {
		t.Fatalf("RecordLogin() error = %v, want nil despite sweep failure", err)
	}
	if len(store.logins) != 1 {
		t.Error("login must be recorded even when the sweep fails")
	}
}

func TestRewardsService_AwardBucks(t *testing.T) {
	store := &fakeRewardsStore{}
	svc := NewRewardsService(store, &fakeUserLister{})
	userID := uuid.New()

	if err := svc.AwardBucks(context.Background(), userID, 25, "Weekly budget kept"); err != nil {
		t.Fatalf("AwardBucks() error = %v, want nil", err)
	}
	if len(store.bucks) != 1 {
		t.Fatalf("got %d ledger entries, want 1", len(store.bucks))
	}
	if store.bucks[0].Amount != 25 {
		t.Errorf("Amount = %d, want 25", store.bucks[0].Amount)
	}

	if err := svc.AwardBucks(context.Background(), userID, 0, "nothing"); !errors.Is(err, ErrInvalidBuckAmount) {
		t.Errorf("zero amount error = %v, want ErrInvalidBuckAmount", err)
	}
	if err := svc.AwardBucks(context.Background(), userID, 10, ""); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("empty description error = %v, want ErrEmptyDescription", err)
	}
}

func TestRewardsService_SweepAll(t *testing.T) {
	store := &fakeRewardsStore{streak: 3}
	users := &fakeUserLister{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	svc := NewRewardsService(store, users)

	if err := svc.SweepAll(context.Background(), fixedNow); err != nil {
		t.Fatalf("SweepAll() error = %v, want nil", err)
	}

	// The shared fake store records the first user's award; the second
	// user's sweep then sees it as already earned.
	if len(store.achievements) != 1 {
		t.Errorf("got %d achievements, want 1", len(store.achievements))
	}
}

func TestGroupThousands(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{100, "100"},
		{1000, "1,000"},
		{10000, "10,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := groupThousands(tt.in); got != tt.want {
			t.Errorf("groupThousands(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
