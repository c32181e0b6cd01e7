package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"account-service/internal/domain"
)

func TestVerificationStoreDoubleKeyRoundTrip(t *testing.T) {
	store := NewVerificationStore(NewInMemoryEphemeralStore(), time.Minute)
	ctx := context.Background()
	pending := &PendingVerification{
		UserID:       uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		AuthType:     domain.AuthTypePassword,
		PasswordHash: "$argon2id$...",
	}

	if err := store.Save(ctx, "123456", pending); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.FindByCode(ctx, "123456")
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if !ok {
		t.Fatal("expected pending record by code")
	}
	if got.Email != pending.Email || got.UserID != pending.UserID || got.PasswordHash != pending.PasswordHash {
		t.Fatalf("payload mismatch: %+v", got)
	}

	code, ok, err := store.FindCodeByUser(ctx, pending.UserID)
	if err != nil {
		t.Fatalf("find code by user: %v", err)
	}
	if !ok || code != "123456" {
		t.Fatalf("expected reverse entry to yield code, got ok=%v code=%q", ok, code)
	}
}

func TestVerificationStoreDeleteRemovesBothEntries(t *testing.T) {
	store := NewVerificationStore(NewInMemoryEphemeralStore(), time.Minute)
	ctx := context.Background()
	pending := &PendingVerification{UserID: uuid.New(), Email: "bob@example.com"}

	if err := store.Save(ctx, "654321", pending); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "654321", pending.UserID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, ok, _ := store.FindByCode(ctx, "654321"); ok {
		t.Fatal("expected code entry gone")
	}
	if _, ok, _ := store.FindCodeByUser(ctx, pending.UserID); ok {
		t.Fatal("expected user entry gone")
	}
}

func TestVerificationStoreTTLExpiresBothEntries(t *testing.T) {
	m, redisStore := newRedisStoreForTest(t)
	store := NewVerificationStore(redisStore, 180*time.Second)
	ctx := context.Background()
	pending := &PendingVerification{UserID: uuid.New(), Email: "carol@example.com"}

	if err := store.Save(ctx, "111222", pending); err != nil {
		t.Fatalf("save: %v", err)
	}
	m.FastForward(181 * time.Second)

	if _, ok, _ := store.FindByCode(ctx, "111222"); ok {
		t.Fatal("expected code entry to expire")
	}
	if _, ok, _ := store.FindCodeByUser(ctx, pending.UserID); ok {
		t.Fatal("expected user entry to expire")
	}
}

func TestPendingVerificationUserMaterialization(t *testing.T) {
	pending := &PendingVerification{
		UserID:       uuid.New(),
		Username:     "dave",
		Email:        "dave@example.com",
		FullName:     "Dave Example",
		AuthType:     domain.AuthTypePassword,
		PasswordHash: "hash",
		Count:        2,
	}
	user := pending.User()
	if user.ID != pending.UserID || user.Email != pending.Email || user.PasswordHash != "hash" {
		t.Fatalf("user mismatch: %+v", user)
	}
	if !user.IsActive {
		t.Fatal("expected materialized user to be active")
	}
}
