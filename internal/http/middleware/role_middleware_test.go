package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/todosuite/user-service/internal/domain"
	"github.com/todosuite/user-service/internal/repository"
	repogomock "github.com/todosuite/user-service/internal/repository/gomock"
)

type gateFactory func(repository.UserRepository) func(http.Handler) http.Handler

func serveWithRoles(t *testing.T, newGate gateFactory, roles domain.RoleList, withCtx bool) int {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	if withCtx {
		repo.EXPECT().FindByID("u-1").Return(&domain.User{ID: "u-1", Roles: roles}, nil)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if withCtx {
		r = r.WithContext(context.WithValue(r.Context(), UserIDContextKey, "u-1"))
	}
	rec := httptest.NewRecorder()
	newGate(repo)(next).ServeHTTP(rec, r)
	return rec.Code
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		name  string
		roles domain.RoleList
		want  int
	}{
		{"app1 admin", domain.RoleList{domain.RoleAdminApp1}, http.StatusOK},
		{"app2 admin", domain.RoleList{domain.RoleAdminApp2}, http.StatusOK},
		{"plain user", domain.RoleList{domain.RoleUser}, http.StatusForbidden},
		{"staff", domain.RoleList{domain.RoleStaffApp1}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := serveWithRoles(t, RequireAdmin, tc.roles, true); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRequireAdminOrStaff(t *testing.T) {
	cases := []struct {
		name  string
		roles domain.RoleList
		want  int
	}{
		{"app1 admin", domain.RoleList{domain.RoleAdminApp1}, http.StatusOK},
		{"app1 staff", domain.RoleList{domain.RoleStaffApp1}, http.StatusOK},
		{"app2 admin", domain.RoleList{domain.RoleAdminApp2}, http.StatusForbidden},
		{"plain user", domain.RoleList{domain.RoleUser}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := serveWithRoles(t, RequireAdminOrStaff, tc.roles, true); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRequireStaffDemandsBothFlags(t *testing.T) {
	cases := []struct {
		name  string
		roles domain.RoleList
		want  int
	}{
		{"app1 staff only", domain.RoleList{domain.RoleStaffApp1}, http.StatusForbidden},
		{"app2 staff only", domain.RoleList{domain.RoleStaffApp2}, http.StatusForbidden},
		{"both staff flags", domain.RoleList{domain.RoleStaffApp1, domain.RoleStaffApp2}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := serveWithRoles(t, RequireStaff, tc.roles, true); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRoleGateWithoutAuthContext(t *testing.T) {
	if got := serveWithRoles(t, RequireAdmin, nil, false); got != http.StatusUnauthorized {
		t.Fatalf("status = %d", got)
	}
}
