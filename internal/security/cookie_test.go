package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewCookieManagerSameSiteMapping(t *testing.T) {
	if got := NewCookieManager("", true, "strict").SameSite; got != http.SameSiteStrictMode {
		t.Fatalf("strict mapping mismatch: %v", got)
	}
	if got := NewCookieManager("", true, "none").SameSite; got != http.SameSiteNoneMode {
		t.Fatalf("none mapping mismatch: %v", got)
	}
}

func TestSetRefreshCookieFlags(t *testing.T) {
	mgr := NewCookieManager("example.com", true, "strict")
	rr := httptest.NewRecorder()
	mgr.SetRefreshCookie(rr, "tok", 7*24*time.Hour)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != RefreshCookieName || c.Value != "tok" {
		t.Fatalf("unexpected cookie: %#v", c)
	}
	if c.Path != "/" || !c.HttpOnly || !c.Secure || c.Domain != "example.com" {
		t.Fatalf("unexpected cookie attributes: %#v", c)
	}
	if c.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected max-age %d", c.MaxAge)
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected same-site %v", c.SameSite)
	}
}

func TestClearRefreshCookie(t *testing.T) {
	mgr := NewCookieManager("", false, "none")
	rr := httptest.NewRecorder()
	mgr.ClearRefreshCookie(rr)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge != -1 || cookies[0].Value != "" {
		t.Fatalf("expected cleared cookie, got %#v", cookies[0])
	}
}

func TestNewVerificationCodeShape(t *testing.T) {
	for i := 0; i < 32; i++ {
		code, err := NewVerificationCode()
		if err != nil {
			t.Fatalf("NewVerificationCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
	}
}
