package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSetRefreshCookieIsPathScoped(t *testing.T) {
	m := NewCookieManager("", true, "lax")
	rec := httptest.NewRecorder()
	m.SetRefreshCookie(rec, "token-value", 24*time.Hour)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != RefreshCookieName {
		t.Fatalf("name = %q, want %q", c.Name, RefreshCookieName)
	}
	if c.Path != RefreshCookiePath {
		t.Fatalf("path = %q, want %q", c.Path, RefreshCookiePath)
	}
	if c.Value != "token-value" {
		t.Fatalf("value = %q", c.Value)
	}
	if !c.HttpOnly || !c.Secure {
		t.Fatal("expected HttpOnly and Secure")
	}
	if c.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("maxage = %d", c.MaxAge)
	}
}

func TestClearRefreshCookieExpiresImmediately(t *testing.T) {
	m := NewCookieManager("", false, "strict")
	rec := httptest.NewRecorder()
	m.ClearRefreshCookie(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Fatalf("maxage = %d, want negative", cookies[0].MaxAge)
	}
	if cookies[0].Value != "" {
		t.Fatalf("value = %q, want empty", cookies[0].Value)
	}
}

func TestGetCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/service/user/refresh_token", nil)
	if got := GetCookie(r, RefreshCookieName); got != "" {
		t.Fatalf("expected empty for absent cookie, got %q", got)
	}
	r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "abc"})
	if got := GetCookie(r, RefreshCookieName); got != "abc" {
		t.Fatalf("got %q", got)
	}
}
