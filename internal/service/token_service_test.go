package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"account-service/internal/domain"
	"account-service/internal/repository/mocks"
	"account-service/internal/security"
)

func newTokenServiceForTest(t *testing.T) (*TokenService, *mocks.MockRefreshTokenRepository) {
	t.Helper()
	jwtMgr, err := security.NewJWTManager(
		"0123456789abcdef0123456789abcdef", "HS256", "account-service-test",
		15*time.Minute, 7*24*time.Hour,
	)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	ctrl := gomock.NewController(t)
	tokenRepo := mocks.NewMockRefreshTokenRepository(ctrl)
	return NewTokenService(jwtMgr, tokenRepo), tokenRepo
}

func TestTokenServiceIssueReusesLiveRecord(t *testing.T) {
	svc, tokenRepo := newTokenServiceForTest(t)
	userID := uuid.New()
	existing := &domain.RefreshToken{
		UserID:    userID,
		Token:     "existing-refresh-token",
		UserAgent: "ua-1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	tokenRepo.EXPECT().FindLiveByUserAndAgent(userID, "ua-1").Return(existing, nil)

	pair, err := svc.Issue(userID, "ua-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.RefreshToken != "existing-refresh-token" {
		t.Fatalf("expected reused refresh token, got %q", pair.RefreshToken)
	}
	if pair.AccessToken == "" {
		t.Fatal("expected fresh access token")
	}
}

func TestTokenServiceIssueCreatesRecordWhenNoneLive(t *testing.T) {
	svc, tokenRepo := newTokenServiceForTest(t)
	userID := uuid.New()
	tokenRepo.EXPECT().FindLiveByUserAndAgent(userID, "ua-2").Return(nil, gorm.ErrRecordNotFound)

	var created *domain.RefreshToken
	tokenRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(rt *domain.RefreshToken) error {
		created = rt
		return nil
	})

	pair, err := svc.Issue(userID, "ua-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if created == nil {
		t.Fatal("expected a refresh record to be persisted")
	}
	if created.Token != pair.RefreshToken {
		t.Fatal("persisted token must match returned refresh token")
	}
	if created.UserID != userID || created.UserAgent != "ua-2" {
		t.Fatalf("record fields mismatch: %+v", created)
	}
	if !created.ExpiresAt.After(time.Now().UTC().Add(6 * 24 * time.Hour)) {
		t.Fatalf("expected multi-day expiry, got %v", created.ExpiresAt)
	}
}

func TestTokenServiceIssueSurfacesRepositoryError(t *testing.T) {
	svc, tokenRepo := newTokenServiceForTest(t)
	userID := uuid.New()
	backendErr := errors.New("backend unavailable")
	tokenRepo.EXPECT().FindLiveByUserAndAgent(userID, "ua").Return(nil, backendErr)

	if _, err := svc.Issue(userID, "ua"); !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestTokenServiceDecodeRoundTrip(t *testing.T) {
	svc, tokenRepo := newTokenServiceForTest(t)
	userID := uuid.New()
	tokenRepo.EXPECT().FindLiveByUserAndAgent(userID, "ua").Return(nil, gorm.ErrRecordNotFound)
	tokenRepo.EXPECT().Create(gomock.Any()).Return(nil)

	pair, err := svc.Issue(userID, "ua")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := svc.Decode(pair.RefreshToken)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != userID {
		t.Fatalf("decoded id mismatch: %v != %v", got, userID)
	}
}

func TestTokenServiceDecodeRejectsGarbage(t *testing.T) {
	svc, _ := newTokenServiceForTest(t)
	if _, err := svc.Decode("not-a-token"); !errors.Is(err, security.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenServiceRevoke(t *testing.T) {
	svc, tokenRepo := newTokenServiceForTest(t)
	userID := uuid.New()
	tokenRepo.EXPECT().DeleteByToken("some-token").Return(nil)
	tokenRepo.EXPECT().DeleteByUserID(userID).Return(nil)

	if err := svc.RevokeByToken("some-token"); err != nil {
		t.Fatalf("revoke by token: %v", err)
	}
	if err := svc.RevokeAll(userID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
}
