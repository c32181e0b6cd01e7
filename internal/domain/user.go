package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuthTypePassword = "password"
	AuthTypeGoogle   = "google"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string     `gorm:"size:255;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName     string     `gorm:"size:255" json:"full_name"`
	Phone        string     `gorm:"size:32" json:"phone"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	AvatarURL    string     `gorm:"size:1024" json:"avatar_url,omitempty"`
	IsActive     bool       `gorm:"not null;default:false" json:"is_active"`
	IsLocked     bool       `gorm:"not null;default:false" json:"is_locked"`
	AuthType     string     `gorm:"size:32;not null;default:password" json:"auth_type"`
	PasswordHash string     `gorm:"size:1024" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	RefreshTokens []RefreshToken `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
