package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"account-service/internal/config"
	"account-service/internal/domain"
	"account-service/internal/repository"
)

type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	GivenName      string
	FamilyName     string
	Picture        string
	EmailVerified  bool
}

type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error)
}

type GoogleOAuthProvider struct {
	cfg *oauth2.Config
}

func NewGoogleOAuthProvider(cfg *config.Config) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{cfg: &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}}
}

func (p *GoogleOAuthProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (p *GoogleOAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.cfg.Exchange(ctx, code)
}

func (p *GoogleOAuthProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error) {
	client := p.cfg.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://openidconnect.googleapis.com/v1/userinfo", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status: %d", resp.StatusCode)
	}
	var body struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Picture       string `json:"picture"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Sub == "" || body.Email == "" {
		return nil, fmt.Errorf("missing required userinfo fields")
	}
	return &OAuthUserInfo{
		ProviderUserID: body.Sub,
		Email:          strings.ToLower(body.Email),
		GivenName:      body.GivenName,
		FamilyName:     body.FamilyName,
		Picture:        body.Picture,
		EmailVerified:  body.EmailVerified,
	}, nil
}

// OAuthService links federated identities. A callback for an email that
// has no account creates one directly: the provider already verified the
// address, so there is no staging step.
type OAuthService struct {
	provider OAuthProvider
	userRepo repository.UserRepository
	timeout  time.Duration
}

func NewOAuthService(provider OAuthProvider, userRepo repository.UserRepository) *OAuthService {
	return &OAuthService{provider: provider, userRepo: userRepo, timeout: 15 * time.Second}
}

func (s *OAuthService) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

func (s *OAuthService) HandleGoogleCallback(ctx context.Context, code string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange: %v", ErrDeliveryFailure, err)
	}
	info, err := s.provider.FetchUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %v", ErrDeliveryFailure, err)
	}
	if !info.EmailVerified {
		return nil, fmt.Errorf("google email not verified")
	}

	user, err := s.userRepo.FindByEmail(info.Email)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, err
	}

	fullName := strings.TrimSpace(info.GivenName + " " + info.FamilyName)
	user = &domain.User{
		ID:        uuid.New(),
		Username:  info.Email,
		Email:     info.Email,
		FullName:  fullName,
		AvatarURL: info.Picture,
		IsActive:  true,
		AuthType:  domain.AuthTypeGoogle,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}
