package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/todosuite/user-service/internal/http/response"
	"github.com/todosuite/user-service/internal/observability"
	"github.com/todosuite/user-service/internal/service"
)

type contextKey string

const UserIDContextKey contextKey = "user_id"

// AuthMiddleware verifies the bearer access token and attaches the resolved
// user id to the request context. The reset flow rides through here too; the
// mailed reset link carries an access-class token, so it doubles as the
// bearer credential.
func AuthMiddleware(tokenSvc *service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			raw := ""
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				raw = strings.TrimSpace(auth[7:])
			}
			if raw == "" {
				observability.RecordTokenValidation(r.Context(), "missing")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}
			userID, err := tokenSvc.ParseAccess(raw)
			if err != nil {
				observability.RecordTokenValidation(r.Context(), "invalid")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
				return
			}
			observability.RecordTokenValidation(r.Context(), "valid")
			ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDContextKey).(string)
	return id, ok
}
