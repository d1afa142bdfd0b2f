package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/todosuite/user-service/internal/domain"
	"github.com/todosuite/user-service/internal/http/middleware"
	"github.com/todosuite/user-service/internal/repository"
	repogomock "github.com/todosuite/user-service/internal/repository/gomock"
	"github.com/todosuite/user-service/internal/service"
)

func newUserHandlerFixture(t *testing.T) (*UserHandler, *repogomock.MockUserRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userSvc := service.NewUserService(repo, service.NewInMemoryUserListCacheStore(), time.Minute, logger)
	return NewUserHandler(userSvc, nil), repo
}

func authedRequest(method, path string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDContextKey, "u-1"))
}

func TestUserInfo(t *testing.T) {
	t.Run("without auth context", func(t *testing.T) {
		h, _ := newUserHandlerFixture(t)
		rec := httptest.NewRecorder()
		h.UserInfo(rec, httptest.NewRequest(http.MethodGet, "/service/user/user-infor", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("returns the caller's profile", func(t *testing.T) {
		h, repo := newUserHandlerFixture(t)
		repo.EXPECT().FindByID("u-1").Return(&domain.User{ID: "u-1", Name: "Alice", Email: "alice@example.com"}, nil)
		rec := httptest.NewRecorder()
		h.UserInfo(rec, authedRequest(http.MethodGet, "/service/user/user-infor"))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Data["email"] != "alice@example.com" {
			t.Fatalf("data = %v", env.Data)
		}
	})
}

func TestGetStaffsEndpoint(t *testing.T) {
	t.Run("no staff", func(t *testing.T) {
		h, repo := newUserHandlerFixture(t)
		repo.EXPECT().ListStaff().Return(nil, nil)
		rec := httptest.NewRecorder()
		h.GetStaffs(rec, authedRequest(http.MethodGet, "/service/user/get_staffs"))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("lists contacts", func(t *testing.T) {
		h, repo := newUserHandlerFixture(t)
		repo.EXPECT().ListStaff().Return([]repository.StaffContact{{ID: "u-3", Email: "carol@example.com"}}, nil)
		rec := httptest.NewRecorder()
		h.GetStaffs(rec, authedRequest(http.MethodGet, "/service/user/get_staffs"))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestUploadImageWithoutStorage(t *testing.T) {
	h, _ := newUserHandlerFixture(t)
	rec := httptest.NewRecorder()
	h.UploadImage(rec, authedRequest(http.MethodPost, "/service/user/avatar"))
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "STORAGE_DISABLED" {
		t.Fatalf("error = %+v", env.Error)
	}
}
