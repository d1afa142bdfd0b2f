package middleware

import (
	"net/http"

	"github.com/todosuite/user-service/internal/domain"
	"github.com/todosuite/user-service/internal/http/response"
	"github.com/todosuite/user-service/internal/repository"
)

// Role gates load the caller's record fresh on every request, so a role or
// status change takes effect without waiting for token expiry.

// RequireAdmin passes holders of either application's admin role.
func RequireAdmin(userRepo repository.UserRepository) func(http.Handler) http.Handler {
	return requireRoles(userRepo, func(roles domain.RoleList) bool {
		return roles.ContainsAny(domain.RoleAdminApp1, domain.RoleAdminApp2)
	})
}

// RequireAdminOrStaff passes app-1 admins and app-1 staff.
func RequireAdminOrStaff(userRepo repository.UserRepository) func(http.Handler) http.Handler {
	return requireRoles(userRepo, func(roles domain.RoleList) bool {
		return roles.ContainsAny(domain.RoleAdminApp1, domain.RoleStaffApp1)
	})
}

// RequireStaff demands BOTH staff roles at once. The two flags are mutually
// exclusive in practice, so this gate rejects every single-role staff
// account. Deliberately left as found, pending clarification with the owners.
func RequireStaff(userRepo repository.UserRepository) func(http.Handler) http.Handler {
	return requireRoles(userRepo, func(roles domain.RoleList) bool {
		return roles.Contains(domain.RoleStaffApp1) && roles.Contains(domain.RoleStaffApp2)
	})
}

func requireRoles(userRepo repository.UserRepository, allowed func(domain.RoleList) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}
			user, err := userRepo.FindByID(userID)
			if err != nil {
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load user", nil)
				return
			}
			if !allowed(user.Roles) {
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
