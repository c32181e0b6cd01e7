package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"account-service/internal/domain"
	"account-service/internal/repository/mocks"
)

type avatarStorageState struct {
	objects map[string][]byte
	failErr error
}

func newAvatarStorageState() *avatarStorageState {
	return &avatarStorageState{objects: make(map[string][]byte)}
}

func (s *avatarStorageState) Upload(_ context.Context, userID uuid.UUID, file io.Reader, _ int64) (string, error) {
	if s.failErr != nil {
		return "", s.failErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s/%s", avatarKeyPrefix, userID, uuid.New())
	s.objects[key] = data
	return key, nil
}

func (s *avatarStorageState) Delete(_ context.Context, userID uuid.UUID, objectKey string) error {
	if !strings.HasPrefix(objectKey, fmt.Sprintf("%s/%s/", avatarKeyPrefix, userID)) {
		return ErrForeignObject
	}
	delete(s.objects, objectKey)
	return nil
}

func (s *avatarStorageState) URL(_ context.Context, objectKey string) (string, error) {
	if _, ok := s.objects[objectKey]; !ok {
		return "", ErrStorageURL
	}
	return "https://storage.example.com/" + objectKey, nil
}

func newUserServiceForTest(t *testing.T) (*UserService, *userRepoState, *avatarStorageState) {
	t.Helper()
	users := newUserRepoState()
	avatars := newAvatarStorageState()

	ctrl := gomock.NewController(tNop{})
	userRepo := mocks.NewMockUserRepository(ctrl)
	userRepo.EXPECT().FindByID(gomock.Any()).AnyTimes().DoAndReturn(users.FindByID)
	userRepo.EXPECT().FindByEmail(gomock.Any()).AnyTimes().DoAndReturn(users.FindByEmail)
	userRepo.EXPECT().Create(gomock.Any()).AnyTimes().DoAndReturn(users.Create)
	userRepo.EXPECT().Update(gomock.Any()).AnyTimes().DoAndReturn(users.Update)
	userRepo.EXPECT().UpdateAvatar(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(users.UpdateAvatar)
	userRepo.EXPECT().Delete(gomock.Any()).AnyTimes().DoAndReturn(users.Delete)

	return NewUserService(userRepo, avatars), users, avatars
}

func seedProfileUser(t *testing.T, users *userRepoState, email string) uuid.UUID {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Username: email, Email: email, IsActive: true, AuthType: domain.AuthTypePassword}
	if err := users.Create(u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func TestUserServiceGetByIDNotFound(t *testing.T) {
	svc, _, _ := newUserServiceForTest(t)
	if _, err := svc.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserServiceUpdateProfilePartial(t *testing.T) {
	svc, users, _ := newUserServiceForTest(t)
	ctx := context.Background()
	id := seedProfileUser(t, users, "profile@example.com")

	fullName := "  Profile Person "
	updated, err := svc.UpdateProfile(ctx, id, UpdateProfileInput{FullName: &fullName})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FullName != "Profile Person" {
		t.Fatalf("expected trimmed full name, got %q", updated.FullName)
	}
	if updated.Username != "profile@example.com" {
		t.Fatalf("untouched fields must survive, got %q", updated.Username)
	}
}

func TestUserServiceAvatarLifecycle(t *testing.T) {
	svc, users, avatars := newUserServiceForTest(t)
	ctx := context.Background()
	id := seedProfileUser(t, users, "avatar@example.com")

	url, err := svc.UploadAvatar(ctx, id, bytes.NewReader([]byte("image-bytes")), 11)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "https://storage.example.com/"+avatarKeyPrefix+"/") {
		t.Fatalf("unexpected avatar url %q", url)
	}
	if len(avatars.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(avatars.objects))
	}

	// A second upload replaces the first object.
	if _, err := svc.UploadAvatar(ctx, id, bytes.NewReader([]byte("newer-bytes")), 11); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if len(avatars.objects) != 1 {
		t.Fatalf("expected old object removed, have %d", len(avatars.objects))
	}

	got, err := svc.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.HasPrefix(got.AvatarURL, "https://storage.example.com/") {
		t.Fatalf("expected resolved avatar url, got %q", got.AvatarURL)
	}

	if err := svc.DeleteAvatar(ctx, id); err != nil {
		t.Fatalf("delete avatar: %v", err)
	}
	if len(avatars.objects) != 0 {
		t.Fatal("expected stored object removed")
	}
	if err := svc.DeleteAvatar(ctx, id); err != nil {
		t.Fatalf("deleting an absent avatar must succeed: %v", err)
	}
}

func TestUserServiceDeleteRemovesAvatarObject(t *testing.T) {
	svc, users, avatars := newUserServiceForTest(t)
	ctx := context.Background()
	id := seedProfileUser(t, users, "goner@example.com")

	if _, err := svc.UploadAvatar(ctx, id, bytes.NewReader([]byte("image")), 5); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(avatars.objects) != 0 {
		t.Fatal("expected avatar object removed with the account")
	}
	if _, err := svc.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
