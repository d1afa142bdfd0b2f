package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/todosuite/user-service/internal/config"
	"github.com/todosuite/user-service/internal/domain"
	"github.com/todosuite/user-service/internal/http/middleware"
	"github.com/todosuite/user-service/internal/http/response"
	"github.com/todosuite/user-service/internal/observability"
	"github.com/todosuite/user-service/internal/security"
	"github.com/todosuite/user-service/internal/service"
)

type AuthHandler struct {
	cfg      *config.Config
	authSvc  *service.AuthService
	tokenSvc *service.TokenService
	cookies  *security.CookieManager
}

func NewAuthHandler(cfg *config.Config, authSvc *service.AuthService, tokenSvc *service.TokenService, cookies *security.CookieManager) *AuthHandler {
	return &AuthHandler{cfg: cfg, authSvc: authSvc, tokenSvc: tokenSvc, cookies: cookies}
}

type signUpRequest struct {
	PersonalID      string `json:"personal_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Address         string `json:"address"`
	PhoneNumber     string `json:"phone_number"`
	ClientURL       string `json:"client_url"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	err := h.authSvc.SignUp(service.SignUpInput{
		PersonalID:      req.PersonalID,
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Address:         req.Address,
		PhoneNumber:     req.PhoneNumber,
		ClientURL:       req.ClientURL,
	})
	if err != nil {
		observability.RecordAuthFlowEvent(r.Context(), "signup", "rejected")
		writeServiceError(w, r, err)
		return
	}
	observability.RecordAuthFlowEvent(r.Context(), "signup", "accepted")
	observability.RecordAuthRequestDuration(r.Context(), "signup", "ok", time.Since(start))
	observability.Audit(r, "auth.signup", "email", req.Email)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "Register Success! Please activate your email to start",
	})
}

// ActivateLink serves the mailed GET link. Browsers get redirected to the
// client's result pages; API callers get JSON.
func (h *AuthHandler) ActivateLink(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid or expired token.", nil)
		return
	}
	err := h.authSvc.Activate(token)
	wantsHTML := strings.Contains(r.Header.Get("Accept"), "text/html")

	base := strings.TrimRight(h.cfg.ClientURL, "/")
	if err != nil {
		observability.RecordAuthFlowEvent(r.Context(), "activation", "rejected")
		if wantsHTML {
			http.Redirect(w, r, base+"/activation-failed", http.StatusFound)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	observability.RecordAuthFlowEvent(r.Context(), "activation", "activated")
	observability.Audit(r, "auth.activate")
	if wantsHTML {
		http.Redirect(w, r, base+"/activation-success", http.StatusFound)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "Account has been activated. Please login now!",
	})
}

func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActivationToken string `json:"activation_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.authSvc.Activate(req.ActivationToken); err != nil {
		observability.RecordAuthFlowEvent(r.Context(), "activation", "rejected")
		writeServiceError(w, r, err)
		return
	}
	observability.RecordAuthFlowEvent(r.Context(), "activation", "activated")
	observability.Audit(r, "auth.activate")
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "Account has been activated. Please login now!",
	})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	result, err := h.authSvc.SignIn(req.Email, req.Password)
	if err != nil {
		observability.RecordAuthFlowEvent(r.Context(), "signin", "rejected")
		writeServiceError(w, r, err)
		return
	}

	h.cookies.SetRefreshCookie(w, result.RefreshToken, h.tokenSvc.RefreshTTL())
	observability.RecordAuthFlowEvent(r.Context(), "signin", "accepted")
	observability.RecordAuthRequestDuration(r.Context(), "signin", "ok", time.Since(start))
	observability.Audit(r, "auth.signin", "user_id", result.User.ID)

	roles := result.User.Roles
	if len(roles) == 1 {
		response.JSON(w, r, http.StatusOK, map[string]any{
			"message":      "🖖Welcome, " + result.User.Name,
			"selectedRole": roles[0],
			"userRoles":    roles,
		})
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message":               "Please select your role.",
		"roleSelectionRequired": true,
		"role":                  roles,
		"id":                    result.User.ID,
	})
}

func (h *AuthHandler) SelectRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       string      `json:"userId"`
		SelectedRole domain.Role `json:"selectedRole"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	user, err := h.authSvc.SelectRole(req.UserID, req.SelectedRole)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message":      "🖖Welcome, " + user.Name,
		"selectedRole": req.SelectedRole,
		"userRoles":    user.Roles,
		"id":           user.ID,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw := security.GetCookie(r, security.RefreshCookieName)
	access, err := h.authSvc.Refresh(raw)
	if err != nil {
		observability.RecordAuthFlowEvent(r.Context(), "refresh", "rejected")
		writeServiceError(w, r, err)
		return
	}
	observability.RecordAuthFlowEvent(r.Context(), "refresh", "issued")
	response.JSON(w, r, http.StatusOK, map[string]any{"access_token": access})
}

func (h *AuthHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		ClientURL string `json:"client_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.authSvc.ForgotPassword(req.Email, req.ClientURL); err != nil {
		observability.RecordAuthFlowEvent(r.Context(), "forgot", "rejected")
		writeServiceError(w, r, err)
		return
	}
	observability.RecordAuthFlowEvent(r.Context(), "forgot", "mailed")
	observability.Audit(r, "auth.forgot_password", "email", req.Email)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "Please check your email for reset",
	})
}

func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	var req struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.authSvc.ResetPassword(userID, req.Password, req.ConfirmPassword); err != nil {
		observability.RecordAuthFlowEvent(r.Context(), "reset", "rejected")
		writeServiceError(w, r, err)
		return
	}
	observability.RecordAuthFlowEvent(r.Context(), "reset", "changed")
	observability.Audit(r, "auth.password_reset", "user_id", userID)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "Password successfully changed. Please login",
	})
}

// Logout clears the refresh cookie. With no server-side session there is
// nothing else to revoke.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearRefreshCookie(w)
	observability.Audit(r, "auth.logout")
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "Logged out success"})
}
