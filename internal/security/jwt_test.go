package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestJWTManager(t *testing.T, accessTTL time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(strings.Repeat("s", 32), "HS256", "account-service", accessTTL, 168*time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func TestNewJWTManagerRejectsNonHMAC(t *testing.T) {
	if _, err := NewJWTManager(strings.Repeat("s", 32), "RS256", "iss", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for RS256")
	}
	if _, err := NewJWTManager(strings.Repeat("s", 32), "bogus", "iss", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWTManager(t, 15*time.Minute)
	id := uuid.New()

	token, err := m.CreateAccessToken(id)
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	claims, err := m.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if got != id {
		t.Fatalf("expected subject %s, got %s", id, got)
	}
}

func TestDecodeExpiredToken(t *testing.T) {
	m := newTestJWTManager(t, -time.Minute)
	token, err := m.CreateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	if _, err := m.Decode(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestDecodeRejectsForeignSignature(t *testing.T) {
	m := newTestJWTManager(t, 15*time.Minute)
	other, err := NewJWTManager(strings.Repeat("x", 32), "HS256", "account-service", 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	token, err := other.CreateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	if _, err := m.Decode(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := m.Decode("not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestRefreshTokenCarriesExpiry(t *testing.T) {
	m := newTestJWTManager(t, 15*time.Minute)
	token, expiresAt, err := m.CreateRefreshToken(uuid.New())
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected token string")
	}
	until := time.Until(expiresAt)
	if until < 167*time.Hour || until > 169*time.Hour {
		t.Fatalf("refresh expiry off: %v", until)
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	m := newTestJWTManager(t, 15*time.Minute)
	userID := uuid.New()

	first, _, err := m.CreateRefreshToken(userID)
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}
	second, _, err := m.CreateRefreshToken(userID)
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}
	if first == second {
		t.Fatal("two refresh tokens for the same user must differ")
	}
}
