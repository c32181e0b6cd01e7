package repository

import (
	"time"

	"account-service/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(id uuid.UUID) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	Create(user *domain.User) error
	Update(user *domain.User) error
	UpdatePassword(id uuid.UUID, passwordHash string) error
	UpdateAvatar(id uuid.UUID, avatarURL string) error
	Delete(id uuid.UUID) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Create(user *domain.User) error { return r.db.Create(user).Error }
func (r *GormUserRepository) Update(user *domain.User) error { return r.db.Save(user).Error }

func (r *GormUserRepository) UpdatePassword(id uuid.UUID, passwordHash string) error {
	return r.db.Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"password_hash": passwordHash, "updated_at": time.Now().UTC()}).Error
}

func (r *GormUserRepository) UpdateAvatar(id uuid.UUID, avatarURL string) error {
	return r.db.Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"avatar_url": avatarURL, "updated_at": time.Now().UTC()}).Error
}

// Delete removes the user and all refresh tokens it owns. The token delete
// is explicit rather than relying on the FK cascade so the behavior holds
// on backends that do not enforce foreign keys.
func (r *GormUserRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.User{}).Error
	})
}
