package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// StructuredRequestLogger emits one slog line per request. Paths that
// carry a one-time credential in a URL segment (verification codes,
// reset tokens) are logged as their route pattern so the secret never
// lands in the logs.
func StructuredRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		pattern := ""
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			pattern = routeCtx.RoutePattern()
		}
		path := r.URL.Path
		if patternCarriesSecret(pattern) {
			path = pattern
		}

		logRequest(r.Context(), status, slog.Group("http",
			slog.String("method", r.Method),
			slog.String("path", path),
			slog.String("route", pattern),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			slog.String("client_ip", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
		))
	})
}

func patternCarriesSecret(pattern string) bool {
	return strings.Contains(pattern, "{code}") || strings.Contains(pattern, "{token}")
}

func logRequest(ctx context.Context, status int, group slog.Attr) {
	switch {
	case status >= http.StatusInternalServerError:
		slog.ErrorContext(ctx, "http.request", group)
	case status >= http.StatusBadRequest:
		slog.WarnContext(ctx, "http.request", group)
	default:
		slog.InfoContext(ctx, "http.request", group)
	}
}
