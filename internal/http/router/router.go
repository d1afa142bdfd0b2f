package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/todosuite/user-service/internal/health"
	"github.com/todosuite/user-service/internal/http/handler"
	"github.com/todosuite/user-service/internal/http/middleware"
	"github.com/todosuite/user-service/internal/http/response"
	"github.com/todosuite/user-service/internal/repository"
	"github.com/todosuite/user-service/internal/service"
)

type Dependencies struct {
	AuthHandler  *handler.AuthHandler
	UserHandler  *handler.UserHandler
	AdminHandler *handler.AdminHandler

	TokenService *service.TokenService
	UserRepo     repository.UserRepository

	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int

	// Optional overrides; when nil, in-process fixed-window limiters are used.
	GlobalRateLimiter GlobalRateLimiterFunc
	AuthRateLimiter   AuthRateLimiterFunc

	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler

// NewRouter mounts the user-management surface under /service/user. The route
// names mirror the frontend the service was written for, spelling quirks
// included.
func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}

	authn := middleware.AuthMiddleware(dep.TokenService)
	adminOnly := middleware.RequireAdmin(dep.UserRepo)
	adminOrStaff := middleware.RequireAdminOrStaff(dep.UserRepo)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/service/user", func(r chi.Router) {
		r.With(authLimiter).Post("/signup", dep.AuthHandler.SignUp)
		r.Get("/activate/{token}", dep.AuthHandler.ActivateLink)
		r.With(authLimiter).Post("/activation", dep.AuthHandler.Activate)
		r.With(authLimiter).Post("/signin", dep.AuthHandler.SignIn)
		r.With(authLimiter).Post("/select-role", dep.AuthHandler.SelectRole)
		r.With(authLimiter).Post("/refresh_token", dep.AuthHandler.Refresh)
		r.With(authLimiter).Post("/forgot", dep.AuthHandler.Forgot)
		r.Get("/logout", dep.AuthHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/reset", dep.AuthHandler.Reset)
			r.Get("/user-infor", dep.UserHandler.UserInfo)
			r.Get("/users/{id}", dep.UserHandler.GetByID)
			r.Get("/get_staffs", dep.UserHandler.GetStaffs)
			r.Patch("/update_user", dep.UserHandler.UpdateUser)
			// Image upload needs a higher body limit (6MB) than the global 1MB.
			r.With(middleware.BodyLimit(6 << 20)).Post("/avatar", dep.UserHandler.UploadImage)

			r.With(adminOrStaff).Get("/all_infor", dep.AdminHandler.AllInfo)
			r.With(adminOnly).Patch("/update_role/{id}", dep.AdminHandler.UpdateRole)
			r.With(adminOnly).Patch("/update_user_status/{id}", dep.AdminHandler.UpdateStatus)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
