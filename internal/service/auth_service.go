package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"account-service/internal/config"
	"account-service/internal/domain"
	"account-service/internal/repository"
	"account-service/internal/security"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailExists        = errors.New("email already registered")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrTooManyResends     = errors.New("too many resend requests")
	ErrNotFound           = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrGoogleAuthDisabled = errors.New("google auth is disabled")
)

type RegisterInput struct {
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Phone          string     `json:"phone"`
	BirthDate      *time.Time `json:"birth_date"`
	Password       string     `json:"password"`
	RepeatPassword string     `json:"repeat_password"`
}

type AuthResult struct {
	User   *domain.User
	Tokens *TokenPair
}

// AuthService drives the credential lifecycle: staged registration with
// an emailed one-time code, login, token issue/rotate, logout, password
// reset and Google sign-in. It keeps no state of its own; everything
// lives in the user store or the ephemeral verification store.
type AuthService struct {
	cfg           *config.Config
	hasher        security.PasswordHasher
	tokenSvc      *TokenService
	oauthSvc      *OAuthService
	userRepo      repository.UserRepository
	verifications *VerificationStore
	notifier      Notifier
}

func NewAuthService(
	cfg *config.Config,
	hasher security.PasswordHasher,
	tokenSvc *TokenService,
	oauthSvc *OAuthService,
	userRepo repository.UserRepository,
	verifications *VerificationStore,
	notifier Notifier,
) *AuthService {
	return &AuthService{
		cfg:           cfg,
		hasher:        hasher,
		tokenSvc:      tokenSvc,
		oauthSvc:      oauthSvc,
		userRepo:      userRepo,
		verifications: verifications,
		notifier:      notifier,
	}
}

// Register stages a new account in the ephemeral store and emails the
// verification code. Nothing is written durably until the code is
// confirmed. The returned id identifies the pending record for resends.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (uuid.UUID, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if err := validateEmail(email); err != nil {
		return uuid.Nil, err
	}
	if in.Password == "" {
		return uuid.Nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if in.Password != in.RepeatPassword {
		return uuid.Nil, ErrPasswordMismatch
	}
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return uuid.Nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return uuid.Nil, err
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = email
	}
	pending := &PendingVerification{
		UserID:       uuid.New(),
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		BirthDate:    in.BirthDate,
		AuthType:     domain.AuthTypePassword,
		PasswordHash: hash,
	}
	if err := s.stageAndNotify(ctx, pending, RenderVerificationEmail, "Confirm your email address"); err != nil {
		return uuid.Nil, err
	}
	return pending.UserID, nil
}

// ResendVerification reissues the code for a pending record. Each resend
// invalidates the previous code. The budget caps at the configured
// limit; an over-budget request fails without touching the record, so
// the last issued code stays usable until the TTL runs out. The
// read-check-write sequence is not atomic: two concurrent resends can
// both pass the budget check, which is an accepted race.
func (s *AuthService) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	code, ok, err := s.verifications.FindCodeByUser(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeExpired
	}
	pending, ok, err := s.verifications.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeExpired
	}
	if pending.Count >= s.cfg.VerificationResendLimit {
		return ErrTooManyResends
	}
	if err := s.verifications.Delete(ctx, code, userID); err != nil {
		return err
	}
	pending.Count++
	return s.stageAndNotify(ctx, pending, RenderVerificationEmail, "Confirm your email address")
}

// VerifyEmail confirms the code, makes the staged account durable and
// signs the caller in. The first durable write for a locally registered
// user happens here.
func (s *AuthService) VerifyEmail(ctx context.Context, code, userAgent string) (*AuthResult, error) {
	pending, ok, err := s.verifications.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeExpired
	}
	user := pending.User()
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	if err := s.verifications.Delete(ctx, code, pending.UserID); err != nil {
		return nil, err
	}
	tokens, err := s.tokenSvc.Issue(user.ID, userAgent)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login verifies a local credential. Unknown email and wrong password
// produce the same error so responses cannot be used to enumerate
// accounts.
func (s *AuthService) Login(ctx context.Context, email, password, userAgent string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	tokens, err := s.tokenSvc.Issue(user.ID, userAgent)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

func (s *AuthService) GoogleLoginURL(state string) (string, error) {
	if !s.cfg.AuthGoogleEnabled {
		return "", ErrGoogleAuthDisabled
	}
	return s.oauthSvc.LoginURL(state), nil
}

func (s *AuthService) LoginWithGoogleCode(ctx context.Context, code, userAgent string) (*AuthResult, error) {
	if !s.cfg.AuthGoogleEnabled {
		return nil, ErrGoogleAuthDisabled
	}
	user, err := s.oauthSvc.HandleGoogleCallback(ctx, code)
	if err != nil {
		return nil, err
	}
	tokens, err := s.tokenSvc.Issue(user.ID, userAgent)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh rotates: the submitted record is revoked before a new pair is
// issued under the same (user, user-agent). A token whose record was
// already rotated away is rejected even though its signature still
// verifies. A crash between revoke and issue leaves the session logged
// out rather than duplicated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, userAgent string) (*AuthResult, error) {
	userID, err := s.tokenSvc.Decode(refreshToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.tokenSvc.FindRecord(refreshToken); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if err := s.tokenSvc.RevokeByToken(refreshToken); err != nil {
		return nil, err
	}
	tokens, err := s.tokenSvc.Issue(user.ID, userAgent)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Logout revokes the submitted refresh record. Idempotent: an absent or
// never-issued token is a success.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokenSvc.RevokeByToken(refreshToken)
}

// ForgotPassword stages a reset for an existing account and emails the
// code. Unlike login, an unknown email is reported: the caller is the
// account owner working through a reset UI, not an authenticator.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (uuid.UUID, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}
	pending := &PendingVerification{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Phone:        user.Phone,
		BirthDate:    user.BirthDate,
		AuthType:     user.AuthType,
		PasswordHash: user.PasswordHash,
	}
	if err := s.stageAndNotify(ctx, pending, RenderPasswordResetEmail, "Reset your password"); err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

// CheckResetCode confirms a reset code is still live and extends its
// window by re-staging the same payload under a fresh TTL. The code is
// not consumed.
func (s *AuthService) CheckResetCode(ctx context.Context, code string) error {
	pending, ok, err := s.verifications.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeExpired
	}
	return s.verifications.Save(ctx, code, pending)
}

// ChangePassword finishes a reset: the pending record located by user id
// must still be live, the new password pair must match, and the caller
// is signed in with a fresh token pair.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, password, repeatPassword, userAgent string) (*AuthResult, error) {
	if password == "" || password != repeatPassword {
		return nil, ErrPasswordMismatch
	}
	code, ok, err := s.verifications.FindCodeByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeExpired
	}
	if _, ok, err = s.verifications.FindByCode(ctx, code); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrCodeExpired
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdatePassword(userID, hash); err != nil {
		return nil, err
	}
	if err := s.verifications.Delete(ctx, code, userID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	tokens, err := s.tokenSvc.Issue(user.ID, userAgent)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// stageAndNotify writes the double-keyed pending record and sends the
// rendered code email. A delivery failure is surfaced to the caller; the
// staged record stays behind so a resend can pick it up.
func (s *AuthService) stageAndNotify(ctx context.Context, pending *PendingVerification, render func(string) (string, error), subject string) error {
	code, err := security.NewVerificationCode()
	if err != nil {
		return err
	}
	if err := s.verifications.Save(ctx, code, pending); err != nil {
		return err
	}
	body, err := render(code)
	if err != nil {
		return err
	}
	return s.notifier.Send(ctx, pending.Email, subject, body)
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}
	return nil
}
