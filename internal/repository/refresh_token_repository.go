package repository

import (
	"time"

	"account-service/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshTokenRepository interface {
	Create(token *domain.RefreshToken) error
	FindByToken(token string) (*domain.RefreshToken, error)
	FindLiveByUserAndAgent(userID uuid.UUID, userAgent string) (*domain.RefreshToken, error)
	ListByUserID(userID uuid.UUID) ([]domain.RefreshToken, error)
	DeleteByToken(token string) error
	DeleteByID(id uint) error
	DeleteByUserID(userID uuid.UUID) error
	CleanupExpired() (int64, error)
}

type GormRefreshTokenRepository struct{ db *gorm.DB }

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

func (r *GormRefreshTokenRepository) Create(token *domain.RefreshToken) error {
	return r.db.Create(token).Error
}

func (r *GormRefreshTokenRepository) FindByToken(token string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	if err := r.db.Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *GormRefreshTokenRepository) FindLiveByUserAndAgent(userID uuid.UUID, userAgent string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	err := r.db.Where("user_id = ? AND user_agent = ? AND expires_at > ?", userID, userAgent, time.Now().UTC()).
		First(&rt).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *GormRefreshTokenRepository) ListByUserID(userID uuid.UUID) ([]domain.RefreshToken, error) {
	var tokens []domain.RefreshToken
	err := r.db.Where("user_id = ?", userID).Find(&tokens).Error
	return tokens, err
}

// DeleteByToken is idempotent: deleting a token that is already gone is
// not an error.
func (r *GormRefreshTokenRepository) DeleteByToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&domain.RefreshToken{}).Error
}

func (r *GormRefreshTokenRepository) DeleteByID(id uint) error {
	return r.db.Delete(&domain.RefreshToken{}, id).Error
}

func (r *GormRefreshTokenRepository) DeleteByUserID(userID uuid.UUID) error {
	return r.db.Where("user_id = ?", userID).Delete(&domain.RefreshToken{}).Error
}

func (r *GormRefreshTokenRepository) CleanupExpired() (int64, error) {
	res := r.db.Where("expires_at <= ?", time.Now().UTC()).Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}
