package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"account-service/internal/domain"
	"account-service/internal/repository"
)

type UpdateProfileInput struct {
	Username  *string    `json:"username"`
	FullName  *string    `json:"full_name"`
	Phone     *string    `json:"phone"`
	BirthDate *time.Time `json:"birth_date"`
}

// UserService manages the profile of an authenticated account. Avatar
// bytes live in object storage; the user record keeps only the object
// key, and reads resolve it to a short-lived URL.
type UserService struct {
	userRepo repository.UserRepository
	avatars  AvatarStorage
}

func NewUserService(userRepo repository.UserRepository, avatars AvatarStorage) *UserService {
	return &UserService{userRepo: userRepo, avatars: avatars}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.resolveAvatarURL(ctx, user)
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.BirthDate != nil {
		user.BirthDate = in.BirthDate
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	s.resolveAvatarURL(ctx, user)
	return user, nil
}

// Delete removes the account, its refresh tokens and its stored avatar.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if user.AvatarURL != "" {
		_ = s.avatars.Delete(ctx, id, user.AvatarURL)
	}
	return s.userRepo.Delete(id)
}

// UploadAvatar replaces the stored avatar and returns a presigned URL
// for the new object.
func (s *UserService) UploadAvatar(ctx context.Context, id uuid.UUID, file io.Reader, size int64) (string, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	objectKey, err := s.avatars.Upload(ctx, id, file, size)
	if err != nil {
		return "", err
	}
	if user.AvatarURL != "" {
		_ = s.avatars.Delete(ctx, id, user.AvatarURL)
	}
	if err := s.userRepo.UpdateAvatar(id, objectKey); err != nil {
		return "", err
	}
	return s.avatars.URL(ctx, objectKey)
}

func (s *UserService) DeleteAvatar(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if user.AvatarURL == "" {
		return nil
	}
	if err := s.avatars.Delete(ctx, id, user.AvatarURL); err != nil {
		return err
	}
	return s.userRepo.UpdateAvatar(id, "")
}

func (s *UserService) resolveAvatarURL(ctx context.Context, user *domain.User) {
	if user.AvatarURL == "" || !strings.HasPrefix(user.AvatarURL, avatarKeyPrefix+"/") {
		return
	}
	if url, err := s.avatars.URL(ctx, user.AvatarURL); err == nil {
		user.AvatarURL = url
	}
}
