package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"github.com/todosuite/user-service/internal/config"
	"github.com/todosuite/user-service/internal/domain"
	repogomock "github.com/todosuite/user-service/internal/repository/gomock"
	"github.com/todosuite/user-service/internal/security"
	"github.com/todosuite/user-service/internal/service"
)

type testEnvelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

type authHandlerFixture struct {
	handler *AuthHandler
	repo    *repogomock.MockUserRepository
	tokens  *service.TokenService
}

func newAuthHandlerFixture(t *testing.T) authHandlerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	cfg := &config.Config{ClientURL: "http://localhost:3000"}
	jwtMgr := security.NewJWTManager(
		"user-service-test",
		"activation-secret-0123456789abcdef",
		"access-secret-0123456789abcdefghij",
		"refresh-secret-0123456789abcdefghi",
		3*time.Minute,
		3*time.Minute,
		24*time.Hour,
	)
	tokens := service.NewTokenService(jwtMgr)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := service.NewAuthService(cfg, repo, tokens, service.NewDevMailer(logger, "no-reply@localhost"), logger)
	cookies := security.NewCookieManager("", false, "lax")
	return authHandlerFixture{
		handler: NewAuthHandler(cfg, authSvc, tokens, cookies),
		repo:    repo,
		tokens:  tokens,
	}
}

func hashedPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := security.HashPassword(plain)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func postJSON(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	h(rec, r)
	return rec
}

func TestSignInSetsScopedRefreshCookie(t *testing.T) {
	fx := newAuthHandlerFixture(t)
	fx.repo.EXPECT().FindByEmail("alice@example.com").Return(&domain.User{
		ID:           "u-1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: hashedPassword(t, "Password1"),
		Roles:        domain.RoleList{domain.RoleUser},
		Status:       domain.StatusActive,
	}, nil)

	rec := postJSON(fx.handler.SignIn, "/service/user/signin", `{"email":"alice@example.com","password":"Password1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	cookie := findCookie(rec, security.RefreshCookieName)
	if cookie == nil {
		t.Fatal("refresh cookie not set")
	}
	if cookie.Path != security.RefreshCookiePath {
		t.Fatalf("cookie path = %q", cookie.Path)
	}
	if !cookie.HttpOnly {
		t.Fatal("refresh cookie must be http-only")
	}
	if cookie.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("cookie max-age = %d", cookie.MaxAge)
	}
	userID, err := fx.tokens.ParseRefresh(cookie.Value)
	if err != nil || userID != "u-1" {
		t.Fatalf("cookie carries %q (err %v)", userID, err)
	}

	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("envelope = %+v", env)
	}
	msg, _ := env.Data["message"].(string)
	if !strings.HasSuffix(msg, "Welcome, Alice") {
		t.Fatalf("message = %q", msg)
	}
	if env.Data["selectedRole"] != float64(domain.RoleUser) {
		t.Fatalf("selectedRole = %v", env.Data["selectedRole"])
	}
}

func TestSignInMultiRoleRequiresSelection(t *testing.T) {
	fx := newAuthHandlerFixture(t)
	fx.repo.EXPECT().FindByEmail("bob@example.com").Return(&domain.User{
		ID:           "u-2",
		Name:         "Bob",
		Email:        "bob@example.com",
		PasswordHash: hashedPassword(t, "Password1"),
		Roles:        domain.RoleList{domain.RoleUser, domain.RoleAdminApp1},
		Status:       domain.StatusActive,
	}, nil)

	rec := postJSON(fx.handler.SignIn, "/service/user/signin", `{"email":"bob@example.com","password":"Password1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Data["roleSelectionRequired"] != true {
		t.Fatalf("data = %v", env.Data)
	}
	if env.Data["id"] != "u-2" {
		t.Fatalf("id = %v", env.Data["id"])
	}
	// The refresh cookie is issued even when a role still has to be picked.
	if findCookie(rec, security.RefreshCookieName) == nil {
		t.Fatal("refresh cookie not set")
	}
}

func TestSignInRejections(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		fx := newAuthHandlerFixture(t)
		fx.repo.EXPECT().FindByEmail("alice@example.com").Return(&domain.User{
			ID:           "u-1",
			PasswordHash: hashedPassword(t, "Password1"),
			Status:       domain.StatusActive,
		}, nil)
		rec := postJSON(fx.handler.SignIn, "/service/user/signin", `{"email":"alice@example.com","password":"Wrong1pass"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Message != "Invalid Credentials" {
			t.Fatalf("error = %+v", env.Error)
		}
		if findCookie(rec, security.RefreshCookieName) != nil {
			t.Fatal("no cookie may be set on rejection")
		}
	})

	t.Run("inactive account", func(t *testing.T) {
		fx := newAuthHandlerFixture(t)
		fx.repo.EXPECT().FindByEmail("alice@example.com").Return(&domain.User{
			ID:           "u-1",
			PasswordHash: hashedPassword(t, "Password1"),
			Status:       domain.StatusInactive,
		}, nil)
		rec := postJSON(fx.handler.SignIn, "/service/user/signin", `{"email":"alice@example.com","password":"Password1"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Code != "FORBIDDEN" {
			t.Fatalf("error = %+v", env.Error)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		fx := newAuthHandlerFixture(t)
		rec := postJSON(fx.handler.SignIn, "/service/user/signin", `{`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func activationToken(t *testing.T, tokens *service.TokenService, email string) string {
	t.Helper()
	token, err := tokens.IssueActivation(domain.PendingUser{
		PersonalID:   "EMP-9",
		Name:         "Grace",
		Email:        email,
		PasswordHash: "stored-hash",
	})
	if err != nil {
		t.Fatalf("issue activation: %v", err)
	}
	return token
}

func getWithToken(h http.HandlerFunc, token, accept string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/service/user/activate/"+token, nil)
	if accept != "" {
		r.Header.Set("Accept", accept)
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("token", token)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	h(rec, r)
	return rec
}

func TestActivateLinkRedirectsBrowsers(t *testing.T) {
	t.Run("success redirects to the result page", func(t *testing.T) {
		fx := newAuthHandlerFixture(t)
		fx.repo.EXPECT().FindByEmail("grace@example.com").Return(nil, gorm.ErrRecordNotFound)
		fx.repo.EXPECT().Create(gomock.Any()).Return(nil)

		token := activationToken(t, fx.tokens, "grace@example.com")
		rec := getWithToken(fx.handler.ActivateLink, token, "text/html,application/xhtml+xml")
		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "http://localhost:3000/activation-success" {
			t.Fatalf("location = %q", loc)
		}
	})

	t.Run("bad token redirects to the failure page", func(t *testing.T) {
		fx := newAuthHandlerFixture(t)
		rec := getWithToken(fx.handler.ActivateLink, "garbage", "text/html")
		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "http://localhost:3000/activation-failed" {
			t.Fatalf("location = %q", loc)
		}
	})

	t.Run("api caller gets json", func(t *testing.T) {
		fx := newAuthHandlerFixture(t)
		fx.repo.EXPECT().FindByEmail("grace@example.com").Return(nil, gorm.ErrRecordNotFound)
		fx.repo.EXPECT().Create(gomock.Any()).Return(nil)

		token := activationToken(t, fx.tokens, "grace@example.com")
		rec := getWithToken(fx.handler.ActivateLink, token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		if env.Data["message"] != "Account has been activated. Please login now!" {
			t.Fatalf("message = %v", env.Data["message"])
		}
	})
}

func TestRefreshReadsScopedCookie(t *testing.T) {
	fx := newAuthHandlerFixture(t)

	t.Run("missing cookie demands login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fx.handler.Refresh(rec, httptest.NewRequest(http.MethodGet, "/service/user/refresh_token", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Message != "Please login now!" {
			t.Fatalf("error = %+v", env.Error)
		}
	})

	t.Run("valid cookie yields an access token", func(t *testing.T) {
		refresh, err := fx.tokens.IssueRefresh("u-1")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/service/user/refresh_token", nil)
		r.AddCookie(&http.Cookie{Name: security.RefreshCookieName, Value: refresh})
		fx.handler.Refresh(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		access, _ := env.Data["access_token"].(string)
		userID, err := fx.tokens.ParseAccess(access)
		if err != nil || userID != "u-1" {
			t.Fatalf("access token carries %q (err %v)", userID, err)
		}
	})
}

func TestLogoutClearsRefreshCookie(t *testing.T) {
	fx := newAuthHandlerFixture(t)
	rec := httptest.NewRecorder()
	fx.handler.Logout(rec, httptest.NewRequest(http.MethodGet, "/service/user/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cookie := findCookie(rec, security.RefreshCookieName)
	if cookie == nil {
		t.Fatal("expected clearing cookie")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Fatalf("cookie = %+v", cookie)
	}
}
