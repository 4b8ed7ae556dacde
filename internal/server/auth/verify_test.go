package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/notekeeper/notekeeper/internal/common"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestVerifyTokens_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	v := NewVerifyTokens([]byte("verify-secret"), 10*time.Minute, fixedClock(now))

	tok, err := v.Issue("kody@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	email, err := v.Email(tok)
	if err != nil {
		t.Fatalf("Email error: %v", err)
	}
	if email != "kody@example.com" {
		t.Fatalf("email mismatch: got %q", email)
	}
}

func TestVerifyTokens_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewVerifyTokens([]byte("verify-secret"), 10*time.Minute, fixedClock(now))
	tok, err := issuer.Issue("kody@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	later := NewVerifyTokens([]byte("verify-secret"), 10*time.Minute, fixedClock(now.Add(11*time.Minute)))
	if _, err := later.Email(tok); !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestVerifyTokens_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewVerifyTokens([]byte("right-secret"), time.Hour, nil).Issue("kody@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewVerifyTokens([]byte("wrong-secret"), time.Hour, nil).Email(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerifyTokens_Garbage(t *testing.T) {
	t.Parallel()

	_, err := NewVerifyTokens([]byte("s"), time.Hour, nil).Email("not.a.jwt")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}
