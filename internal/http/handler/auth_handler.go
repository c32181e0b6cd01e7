package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"account-service/internal/http/response"
	"account-service/internal/observability"
	"account-service/internal/security"
	"account-service/internal/service"
)

type AuthHandler struct {
	authSvc    service.AuthServiceInterface
	cookieMgr  *security.CookieManager
	stateKey   string
	refreshTTL time.Duration
}

func NewAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, stateKey string, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookieMgr: cookieMgr, stateKey: stateKey, refreshTTL: refreshTTL}
}

type registerRequest struct {
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Phone          string     `json:"phone"`
	BirthDate      *time.Time `json:"birth_date"`
	Password       string     `json:"password"`
	RepeatPassword string     `json:"repeat_password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := h.authSvc.Register(r.Context(), service.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		Phone:          req.Phone,
		BirthDate:      req.BirthDate,
		Password:       req.Password,
		RepeatPassword: req.RepeatPassword,
	})
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.register.failed", "email", req.Email)
		observability.RecordAuthRegister(r.Context(), "register", "failure")
		switch {
		case errors.Is(err, service.ErrEmailExists):
			response.Error(w, r, http.StatusConflict, "email already registered")
		case errors.Is(err, service.ErrPasswordMismatch):
			response.Error(w, r, http.StatusBadRequest, "passwords do not match")
		case errors.Is(err, service.ErrDeliveryFailure):
			response.Error(w, r, http.StatusGatewayTimeout, "could not deliver verification email")
		case errors.Is(err, service.ErrInvalidInput):
			response.Error(w, r, http.StatusBadRequest, "invalid registration payload")
		default:
			response.Error(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	observability.Audit(r, "auth.register.pending", "user_id", id)
	observability.RecordAuthRegister(r.Context(), "register", "success")
	observability.RecordVerificationEmail(r.Context(), "verify_email", "sent")
	response.JSON(w, r, http.StatusCreated, map[string]any{"message": "verification email sent", "id": id})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "verify_email", status, time.Since(start))
	}()

	code := chi.URLParam(r, "code")
	result, err := h.authSvc.VerifyEmail(r.Context(), code, r.UserAgent())
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.verify_email.failed")
		observability.RecordAuthRegister(r.Context(), "verify", "failure")
		if errors.Is(err, service.ErrCodeExpired) {
			response.Error(w, r, http.StatusBadRequest, "verification code expired")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	h.cookieMgr.SetRefreshCookie(w, result.Tokens.RefreshToken, h.refreshTTL)
	observability.Audit(r, "auth.verify_email.success", "user_id", result.User.ID)
	observability.RecordAuthRegister(r.Context(), "verify", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"access_token": result.Tokens.AccessToken, "user": result.User})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.authSvc.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.login.failed", "email", req.Email)
		observability.RecordAuthLogin(r.Context(), "local", "failure")
		if errors.Is(err, service.ErrInvalidCredentials) {
			// One message for unknown email and wrong password.
			response.Error(w, r, http.StatusBadRequest, "invalid credentials")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	h.cookieMgr.SetRefreshCookie(w, result.Tokens.RefreshToken, h.refreshTTL)
	observability.Audit(r, "auth.login.success", "user_id", result.User.ID, "provider", "local")
	observability.RecordAuthLogin(r.Context(), "local", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"access_token": result.Tokens.AccessToken, "user": result.User})
}

func (h *AuthHandler) ResendEmail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "resend_email", status, time.Since(start))
	}()

	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.authSvc.ResendVerification(r.Context(), userID); err != nil {
		status = "failure"
		observability.Audit(r, "auth.resend_email.failed", "user_id", userID)
		switch {
		case errors.Is(err, service.ErrTooManyResends):
			response.Error(w, r, http.StatusTooManyRequests, "too many resend attempts")
		case errors.Is(err, service.ErrCodeExpired):
			response.Error(w, r, http.StatusBadRequest, "verification code expired")
		case errors.Is(err, service.ErrDeliveryFailure):
			response.Error(w, r, http.StatusGatewayTimeout, "could not deliver verification email")
		default:
			response.Error(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	observability.Audit(r, "auth.resend_email.success", "user_id", userID)
	observability.RecordVerificationEmail(r.Context(), "verify_email", "resent")
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "verification email sent", "id": userID})
}

func (h *AuthHandler) GoogleAuthURL(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "google_auth", status, time.Since(start))
	}()

	state, err := security.NewRandomString(24)
	if err != nil {
		status = "failure"
		response.Error(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	url, err := h.authSvc.GoogleLoginURL(state)
	if err != nil {
		status = "failure"
		observability.RecordGoogleOAuthEvent(r.Context(), "auth_url", "failure")
		if errors.Is(err, service.ErrGoogleAuthDisabled) {
			response.Error(w, r, http.StatusNotFound, "google auth is not enabled")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	signed := security.SignState(state, h.stateKey)
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: signed, Path: "/auth/google", HttpOnly: true, Secure: h.cookieMgr.Secure, SameSite: h.cookieMgr.SameSite, Domain: h.cookieMgr.Domain, MaxAge: 300})
	observability.RecordGoogleOAuthEvent(r.Context(), "auth_url", "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"url": url})
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "google_callback", status, time.Since(start))
	}()

	code := r.URL.Query().Get("code")
	if code == "" {
		status = "failure"
		observability.RecordGoogleOAuthEvent(r.Context(), "callback", "failure")
		response.Error(w, r, http.StatusBadRequest, "missing authorization code")
		return
	}
	if queryState := r.URL.Query().Get("state"); queryState != "" {
		stateCookie := security.GetCookie(r, "oauth_state")
		if stateCookie != "" {
			state, ok := security.VerifySignedState(stateCookie, h.stateKey)
			if !ok || state != queryState {
				status = "failure"
				observability.Audit(r, "auth.google.callback.failed", "reason", "invalid_state")
				observability.RecordGoogleOAuthEvent(r.Context(), "callback", "failure")
				response.Error(w, r, http.StatusBadRequest, "invalid oauth state")
				return
			}
			// One-time state, gone after a successful check.
			http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/auth/google", MaxAge: -1, HttpOnly: true, Secure: h.cookieMgr.Secure, SameSite: h.cookieMgr.SameSite, Domain: h.cookieMgr.Domain})
		}
	}

	result, err := h.authSvc.LoginWithGoogleCode(r.Context(), code, r.UserAgent())
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.google.callback.failed", "reason", "oauth_exchange")
		observability.RecordGoogleOAuthEvent(r.Context(), "callback", "failure")
		switch {
		case errors.Is(err, service.ErrGoogleAuthDisabled):
			response.Error(w, r, http.StatusNotFound, "google auth is not enabled")
		case errors.Is(err, service.ErrDeliveryFailure):
			response.Error(w, r, http.StatusGatewayTimeout, "google is unreachable")
		default:
			response.Error(w, r, http.StatusBadRequest, "google sign-in failed")
		}
		return
	}
	h.cookieMgr.SetRefreshCookie(w, result.Tokens.RefreshToken, h.refreshTTL)
	observability.Audit(r, "auth.login.success", "user_id", result.User.ID, "provider", "google")
	observability.RecordAuthLogin(r.Context(), "google", "success")
	observability.RecordGoogleOAuthEvent(r.Context(), "callback", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"access_token": result.Tokens.AccessToken, "user": result.User})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "refresh", status, time.Since(start))
	}()

	refresh := security.GetCookie(r, security.RefreshCookieName)
	if refresh == "" {
		status = "failure"
		observability.RecordAuthRefresh(r.Context(), "failure")
		response.Error(w, r, http.StatusUnauthorized, "missing refresh token")
		return
	}
	result, err := h.authSvc.Refresh(r.Context(), refresh, r.UserAgent())
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.refresh.failed")
		observability.RecordAuthRefresh(r.Context(), "failure")
		if errors.Is(err, service.ErrNotFound) {
			response.Error(w, r, http.StatusNotFound, "user not found")
			return
		}
		response.Error(w, r, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	h.cookieMgr.SetRefreshCookie(w, result.Tokens.RefreshToken, h.refreshTTL)
	observability.Audit(r, "auth.refresh.success", "user_id", result.User.ID)
	observability.RecordAuthRefresh(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"access_token": result.Tokens.AccessToken})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "forgot_password", status, time.Since(start))
	}()

	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := h.authSvc.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		status = "failure"
		observability.RecordPasswordResetEvent(r.Context(), "forgot", "failure")
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Error(w, r, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrDeliveryFailure):
			response.Error(w, r, http.StatusGatewayTimeout, "could not deliver reset email")
		default:
			response.Error(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	observability.Audit(r, "auth.forgot_password.requested", "user_id", id)
	observability.RecordPasswordResetEvent(r.Context(), "forgot", "accepted")
	observability.RecordVerificationEmail(r.Context(), "reset_password", "sent")
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "reset email sent", "id": id})
}

func (h *AuthHandler) CheckResetCode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "check_reset_code", status, time.Since(start))
	}()

	code := chi.URLParam(r, "token")
	if err := h.authSvc.CheckResetCode(r.Context(), code); err != nil {
		status = "failure"
		observability.RecordPasswordResetEvent(r.Context(), "check_code", "failure")
		response.Error(w, r, http.StatusInternalServerError, "reset code is not valid")
		return
	}
	observability.RecordPasswordResetEvent(r.Context(), "check_code", "valid")
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "reset code is valid"})
}

type changePasswordRequest struct {
	ID             uuid.UUID `json:"id"`
	Password       string    `json:"password"`
	RepeatPassword string    `json:"repeat_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "change_password", status, time.Since(start))
	}()

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.authSvc.ChangePassword(r.Context(), req.ID, req.Password, req.RepeatPassword, r.UserAgent())
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.change_password.failed", "user_id", req.ID)
		observability.RecordPasswordResetEvent(r.Context(), "change", "failure")
		switch {
		case errors.Is(err, service.ErrPasswordMismatch):
			response.Error(w, r, http.StatusUnauthorized, "passwords do not match")
		case errors.Is(err, service.ErrCodeExpired):
			response.Error(w, r, http.StatusBadRequest, "reset window expired")
		default:
			response.Error(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	h.cookieMgr.SetRefreshCookie(w, result.Tokens.RefreshToken, h.refreshTTL)
	observability.Audit(r, "auth.change_password.success", "user_id", result.User.ID)
	observability.RecordPasswordResetEvent(r.Context(), "change", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"access_token": result.Tokens.AccessToken, "user": result.User})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "logout", status, time.Since(start))
	}()

	refresh := security.GetCookie(r, security.RefreshCookieName)
	if err := h.authSvc.Logout(r.Context(), refresh); err != nil {
		status = "failure"
		observability.RecordAuthLogout(r.Context(), "failure")
		response.Error(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	h.cookieMgr.ClearRefreshCookie(w)
	observability.Audit(r, "auth.logout.success")
	observability.RecordAuthLogout(r.Context(), "success")
	response.JSON(w, r, http.StatusNoContent, nil)
}
