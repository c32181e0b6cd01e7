package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"account-service/internal/health"
	"account-service/internal/http/handler"
	"account-service/internal/http/middleware"
	"account-service/internal/http/response"
	"account-service/internal/security"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	JWTManager       *security.JWTManager
	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	GlobalLimiter    func(http.Handler) http.Handler
	AuthLimiter      func(http.Handler) http.Handler
	Readiness        *health.ProbeRunner
	EnableOTelHTTP   bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	if dep.GlobalLimiter != nil {
		r.Use(dep.GlobalLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.JSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "unready", "checks": results})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter)
		r.Use(middleware.BodyLimit(1 << 20))
		r.Post("/register", dep.AuthHandler.Register)
		r.Get("/verify_email/{code}", dep.AuthHandler.VerifyEmail)
		r.Post("/login", dep.AuthHandler.Login)
		r.Get("/resend_email/{user_id}", dep.AuthHandler.ResendEmail)
		r.Get("/google_auth", dep.AuthHandler.GoogleAuthURL)
		r.Get("/google/callback", dep.AuthHandler.GoogleCallback)
		r.Post("/refresh_access", dep.AuthHandler.Refresh)
		r.Post("/forgot_password", dep.AuthHandler.ForgotPassword)
		r.Get("/forgot_password/{token}", dep.AuthHandler.CheckResetCode)
		r.Post("/forgot_password/change", dep.AuthHandler.ChangePassword)
		r.Get("/logout", dep.AuthHandler.Logout)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(dep.JWTManager))
		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(1 << 20))
			r.Get("/me", dep.UserHandler.Me)
			r.Patch("/me", dep.UserHandler.UpdateMe)
			r.Delete("/me", dep.UserHandler.DeleteMe)
			r.Delete("/me/avatar", dep.UserHandler.DeleteAvatar)
		})
		// Avatar uploads carry a 6MB cap instead of the default 1MB.
		r.With(middleware.BodyLimit(6 << 20)).Post("/me/avatar", dep.UserHandler.UploadAvatar)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
