package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/todosuite/user-service/internal/domain"
	"github.com/todosuite/user-service/internal/http/response"
	"github.com/todosuite/user-service/internal/observability"
	"github.com/todosuite/user-service/internal/service"
)

type AdminHandler struct {
	userSvc *service.UserService
}

func NewAdminHandler(userSvc *service.UserService) *AdminHandler {
	return &AdminHandler{userSvc: userSvc}
}

// AllInfo is the searchable, sortable, paginated user listing.
func (h *AdminHandler) AllInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	in := service.UserListInput{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
		Page:   page,
		Limit:  limit,
		All:    q.Get("all") == "true",
	}
	observability.RecordListPageSize(r.Context(), limit)

	result, cached, err := h.userSvc.List(r.Context(), in)
	if err != nil {
		observability.RecordListRequestDuration(r.Context(), "error", time.Since(start))
		writeServiceError(w, r, err)
		return
	}
	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	observability.RecordListRequestDuration(r.Context(), "ok", time.Since(start))
	response.JSON(w, r, http.StatusOK, result)
}

func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role []domain.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	targetID := chi.URLParam(r, "id")
	roles, err := h.userSvc.UpdateRole(r.Context(), targetID, req.Role)
	if err != nil {
		observability.RecordRoleMutation(r.Context(), "update_role", "rejected")
		writeServiceError(w, r, err)
		return
	}
	observability.RecordRoleMutation(r.Context(), "update_role", "success")
	observability.Audit(r, "admin.role_update", "target_id", targetID, "roles", roles)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "Update user role success",
		"role":    roles,
	})
}

func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	targetID := chi.URLParam(r, "id")
	if err := h.userSvc.UpdateStatus(r.Context(), targetID, req.Status); err != nil {
		observability.RecordRoleMutation(r.Context(), "update_status", "rejected")
		writeServiceError(w, r, err)
		return
	}
	observability.RecordRoleMutation(r.Context(), "update_status", "success")
	observability.Audit(r, "admin.status_update", "target_id", targetID, "status", req.Status)
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "User status updated"})
}
