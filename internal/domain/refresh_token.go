package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the durable per-device session record. At most one live
// row exists per (UserID, UserAgent) pair; issuing a token for a pair that
// already holds a live row reuses that row instead of inserting another.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_refresh_tokens_user_agent" json:"user_id"`
	Token     string    `gorm:"size:1024;not null;index" json:"-"`
	UserAgent string    `gorm:"size:512;not null;index:idx_refresh_tokens_user_agent" json:"user_agent"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
