package integration

import (
	"net/http"
	"testing"
	"time"

	"account-service/internal/http/middleware"
)

func TestAuthRoutesRateLimited(t *testing.T) {
	notifier := &captureNotifier{}
	baseURL, client, closeFn := newAuthTestServerWithOptions(t, authTestServerOptions{
		notifier:    notifier,
		authLimiter: middleware.NewRateLimiter(2, time.Minute).Middleware(),
	})
	defer closeFn()

	body := map[string]string{"email": "limited@example.com", "password": testPassword}
	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, client, http.MethodPost, baseURL+"/auth/login", body, nil)
		if resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("request %d should not be limited", i+1)
		}
	}

	resp, raw := doJSON(t, client, http.MethodPost, baseURL+"/auth/login", body, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the auth limit, got %d body=%s", resp.StatusCode, raw)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on limited response")
	}

	// User routes sit outside the auth limiter.
	resp, _ = doJSON(t, client, http.MethodGet, baseURL+"/users/me", nil, nil)
	if resp.StatusCode == http.StatusTooManyRequests {
		t.Fatal("auth limiter must not apply to user routes")
	}
}

func TestHealthEndpoints(t *testing.T) {
	baseURL, client, _, closeFn := newAuthTestServer(t)
	defer closeFn()

	resp, body := doJSON(t, client, http.MethodGet, baseURL+"/health/live", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("live failed: status=%d body=%s", resp.StatusCode, body)
	}
	var live struct {
		Status string `json:"status"`
	}
	mustDecode(t, body, &live)
	if live.Status != "ok" {
		t.Fatalf("unexpected live status: %s", live.Status)
	}

	// No probe runner configured means ready by definition.
	resp, body = doJSON(t, client, http.MethodGet, baseURL+"/health/ready", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready failed: status=%d body=%s", resp.StatusCode, body)
	}
	var ready struct {
		Status string `json:"status"`
	}
	mustDecode(t, body, &ready)
	if ready.Status != "ready" {
		t.Fatalf("unexpected ready status: %s", ready.Status)
	}
}

func TestSecurityHeadersPresent(t *testing.T) {
	baseURL, client, _, closeFn := newAuthTestServer(t)
	defer closeFn()

	resp, _ := doJSON(t, client, http.MethodGet, baseURL+"/health/live", nil, nil)
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff header, got %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected frame deny header, got %q", got)
	}
	if got := resp.Header.Get("Content-Security-Policy"); got != "default-src 'self'" {
		t.Fatalf("expected csp header, got %q", got)
	}
}
