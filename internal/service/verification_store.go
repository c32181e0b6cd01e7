package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"account-service/internal/domain"
)

// PendingVerification is the staged account (or staged password change)
// held in the ephemeral store until the emailed code is confirmed. The
// password hash is computed before staging; the plaintext is never stored.
type PendingVerification struct {
	UserID       uuid.UUID  `json:"user_id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	AuthType     string     `json:"auth_type"`
	PasswordHash string     `json:"password_hash"`
	Count        int        `json:"count"`
}

// User materializes the staged payload as a durable record. The resend
// counter stays behind in the ephemeral layer.
func (p *PendingVerification) User() *domain.User {
	return &domain.User{
		ID:           p.UserID,
		Username:     p.Username,
		Email:        p.Email,
		FullName:     p.FullName,
		Phone:        p.Phone,
		BirthDate:    p.BirthDate,
		IsActive:     true,
		AuthType:     p.AuthType,
		PasswordHash: p.PasswordHash,
	}
}

// VerificationStore keeps each pending record under two keys: the code
// maps to the full payload and the user id maps back to the code, so a
// resend can locate the current code without the caller supplying it.
// Both keys are always written together and deleted together; they share
// one TTL.
type VerificationStore struct {
	store EphemeralStore
	ttl   time.Duration
}

func NewVerificationStore(store EphemeralStore, ttl time.Duration) *VerificationStore {
	return &VerificationStore{store: store, ttl: ttl}
}

func codeKey(code string) string { return "verify:code:" + code }

func userKey(userID uuid.UUID) string { return "verify:user:" + userID.String() }

func (s *VerificationStore) Save(ctx context.Context, code string, pending *PendingVerification) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, codeKey(code), payload, s.ttl); err != nil {
		return err
	}
	return s.store.Set(ctx, userKey(pending.UserID), []byte(code), s.ttl)
}

func (s *VerificationStore) FindByCode(ctx context.Context, code string) (*PendingVerification, bool, error) {
	payload, ok, err := s.store.Get(ctx, codeKey(code))
	if err != nil || !ok {
		return nil, false, err
	}
	var pending PendingVerification
	if err := json.Unmarshal(payload, &pending); err != nil {
		return nil, false, err
	}
	return &pending, true, nil
}

func (s *VerificationStore) FindCodeByUser(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	code, ok, err := s.store.Get(ctx, userKey(userID))
	if err != nil || !ok {
		return "", false, err
	}
	return string(code), true, nil
}

// Delete removes both entries. The deletes are sequential, not
// transactional; the narrow window between them is an accepted risk.
func (s *VerificationStore) Delete(ctx context.Context, code string, userID uuid.UUID) error {
	if err := s.store.Delete(ctx, codeKey(code)); err != nil {
		return err
	}
	return s.store.Delete(ctx, userKey(userID))
}
