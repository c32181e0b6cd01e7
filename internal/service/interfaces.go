package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"account-service/internal/domain"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (uuid.UUID, error)
	ResendVerification(ctx context.Context, userID uuid.UUID) error
	VerifyEmail(ctx context.Context, code, userAgent string) (*AuthResult, error)
	Login(ctx context.Context, email, password, userAgent string) (*AuthResult, error)
	GoogleLoginURL(state string) (string, error)
	LoginWithGoogleCode(ctx context.Context, code, userAgent string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken, userAgent string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) (uuid.UUID, error)
	CheckResetCode(ctx context.Context, code string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, password, repeatPassword, userAgent string) (*AuthResult, error)
}

type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadAvatar(ctx context.Context, id uuid.UUID, file io.Reader, size int64) (string, error)
	DeleteAvatar(ctx context.Context, id uuid.UUID) error
}
