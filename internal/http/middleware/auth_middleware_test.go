package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/todosuite/user-service/internal/security"
	"github.com/todosuite/user-service/internal/service"
)

func newTestTokenService() *service.TokenService {
	jwtMgr := security.NewJWTManager(
		"user-service-test",
		"activation-secret-0123456789abcdef",
		"access-secret-0123456789abcdefghij",
		"refresh-secret-0123456789abcdefghi",
		3*time.Minute,
		3*time.Minute,
		24*time.Hour,
	)
	return service.NewTokenService(jwtMgr)
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTestTokenService()
	var gotUserID string
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(tokens)(next)

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("non-bearer scheme", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Basic abc")
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer garbage")
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("refresh token is not a bearer credential", func(t *testing.T) {
		refresh, err := tokens.IssueRefresh("u-1")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+refresh)
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("valid token resolves user id", func(t *testing.T) {
		access, err := tokens.IssueAccess("u-1")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+access)
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !gotOK || gotUserID != "u-1" {
			t.Fatalf("context user = %q ok=%v", gotUserID, gotOK)
		}
	})
}
