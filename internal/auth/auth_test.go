package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	userID := uuid.New()

	token, err := m.IssueToken(userID, time.Now())
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	got, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if got != userID {
		t.Errorf("VerifyToken() = %s, want %s", got, userID)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.IssueToken(uuid.New(), time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if _, err := m.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	issued, err := NewManager("secret-a", time.Hour).IssueToken(uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if _, err := NewManager("secret-b", time.Hour).VerifyToken(issued); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if err := CheckPassword(hash, "hunter2!"); err != nil {
		t.Errorf("CheckPassword() with correct password = %v, want nil", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword() with wrong password = %v, want ErrInvalidCredentials", err)
	}
}
