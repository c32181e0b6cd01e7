package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"account-service/internal/domain"
	"account-service/internal/repository/mocks"
)

func TestOAuthServiceHandleGoogleCallbackExchangeError(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockOAuthProvider(ctrl)
	provider.EXPECT().Exchange(gomock.Any(), "code").Return(nil, context.DeadlineExceeded)

	svc := NewOAuthService(provider, nil)

	_, err := svc.HandleGoogleCallback(context.Background(), "code")
	if !errors.Is(err, ErrDeliveryFailure) {
		t.Fatalf("expected ErrDeliveryFailure, got %v", err)
	}
}

func TestOAuthServiceHandleGoogleCallbackUserInfoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockOAuthProvider(ctrl)
	provider.EXPECT().Exchange(gomock.Any(), "code").Return(&oauth2.Token{AccessToken: "token"}, nil)
	provider.EXPECT().FetchUserInfo(gomock.Any(), gomock.Any()).Return(nil, errors.New("userinfo status: 500"))

	svc := NewOAuthService(provider, nil)

	_, err := svc.HandleGoogleCallback(context.Background(), "code")
	if !errors.Is(err, ErrDeliveryFailure) {
		t.Fatalf("expected ErrDeliveryFailure, got %v", err)
	}
}

func TestOAuthServiceHandleGoogleCallbackEmailNotVerified(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockOAuthProvider(ctrl)
	provider.EXPECT().Exchange(gomock.Any(), "code").Return(&oauth2.Token{AccessToken: "token"}, nil)
	provider.EXPECT().FetchUserInfo(gomock.Any(), gomock.Any()).
		Return(&OAuthUserInfo{ProviderUserID: "sub", Email: "user@example.com", EmailVerified: false}, nil)

	svc := NewOAuthService(provider, nil)

	_, err := svc.HandleGoogleCallback(context.Background(), "code")
	if err == nil || err.Error() != "google email not verified" {
		t.Fatalf("expected google email not verified error, got %v", err)
	}
}

func TestOAuthServiceHandleGoogleCallbackReturnsExistingUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockOAuthProvider(ctrl)
	provider.EXPECT().Exchange(gomock.Any(), "code").Return(&oauth2.Token{AccessToken: "token"}, nil)
	provider.EXPECT().FetchUserInfo(gomock.Any(), gomock.Any()).
		Return(&OAuthUserInfo{ProviderUserID: "sub", Email: "known@example.com", EmailVerified: true}, nil)

	existing := &domain.User{Email: "known@example.com", AuthType: domain.AuthTypePassword}
	userRepo := mocks.NewMockUserRepository(ctrl)
	userRepo.EXPECT().FindByEmail("known@example.com").Return(existing, nil)

	svc := NewOAuthService(provider, userRepo)

	user, err := svc.HandleGoogleCallback(context.Background(), "code")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if user != existing {
		t.Fatal("expected the existing user to be returned unchanged")
	}
}

func TestOAuthServiceHandleGoogleCallbackCreatesUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockOAuthProvider(ctrl)
	provider.EXPECT().Exchange(gomock.Any(), "code").Return(&oauth2.Token{AccessToken: "token"}, nil)
	provider.EXPECT().FetchUserInfo(gomock.Any(), gomock.Any()).
		Return(&OAuthUserInfo{
			ProviderUserID: "sub",
			Email:          "new@example.com",
			GivenName:      "New",
			FamilyName:     "User",
			EmailVerified:  true,
		}, nil)

	userRepo := mocks.NewMockUserRepository(ctrl)
	userRepo.EXPECT().FindByEmail("new@example.com").Return(nil, gorm.ErrRecordNotFound)

	var created *domain.User
	userRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(u *domain.User) error {
		created = u
		return nil
	})

	svc := NewOAuthService(provider, userRepo)

	user, err := svc.HandleGoogleCallback(context.Background(), "code")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if created == nil || user != created {
		t.Fatal("expected a new user to be created and returned")
	}
	if user.AuthType != domain.AuthTypeGoogle {
		t.Fatalf("expected google auth type, got %q", user.AuthType)
	}
	if user.FullName != "New User" {
		t.Fatalf("unexpected full name: %q", user.FullName)
	}
	if user.PasswordHash != "" {
		t.Fatal("federated identity must not carry a credential secret")
	}
	if !user.IsActive {
		t.Fatal("expected created user to be active")
	}
}
