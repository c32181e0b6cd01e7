package service

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"account-service/internal/domain"
	"account-service/internal/repository"
	"account-service/internal/security"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"-"`
}

// TokenService issues the access/refresh pair and manages the durable
// refresh-token records. Issuance reuses a live record for the same
// (user, user-agent) instead of inserting a duplicate; an explicit
// refresh rotates by revoking the old record first and then issuing.
type TokenService struct {
	jwtMgr    *security.JWTManager
	tokenRepo repository.RefreshTokenRepository
}

func NewTokenService(jwtMgr *security.JWTManager, tokenRepo repository.RefreshTokenRepository) *TokenService {
	return &TokenService{jwtMgr: jwtMgr, tokenRepo: tokenRepo}
}

func (s *TokenService) Issue(userID uuid.UUID, userAgent string) (*TokenPair, error) {
	access, err := s.jwtMgr.CreateAccessToken(userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.tokenRepo.FindLiveByUserAndAgent(userID, userAgent)
	switch {
	case err == nil:
		return &TokenPair{AccessToken: access, RefreshToken: existing.Token}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, err
	}

	refresh, expiresAt, err := s.jwtMgr.CreateRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	record := &domain.RefreshToken{
		UserID:    userID,
		Token:     refresh,
		UserAgent: userAgent,
		ExpiresAt: expiresAt,
	}
	if err := s.tokenRepo.Create(record); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Decode returns the user id a refresh or access token was signed for.
func (s *TokenService) Decode(token string) (uuid.UUID, error) {
	claims, err := s.jwtMgr.Decode(token)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID()
}

// FindRecord returns the durable record for a refresh token value.
func (s *TokenService) FindRecord(token string) (*domain.RefreshToken, error) {
	return s.tokenRepo.FindByToken(token)
}

// RevokeByToken removes the refresh record for the given token value.
// Revoking an absent record is not an error.
func (s *TokenService) RevokeByToken(token string) error {
	return s.tokenRepo.DeleteByToken(token)
}

func (s *TokenService) RevokeAll(userID uuid.UUID) error {
	return s.tokenRepo.DeleteByUserID(userID)
}
