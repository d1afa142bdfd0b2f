package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/todosuite/user-service/internal/http/middleware"
	"github.com/todosuite/user-service/internal/http/response"
	"github.com/todosuite/user-service/internal/observability"
	"github.com/todosuite/user-service/internal/service"
)

type UserHandler struct {
	userSvc *service.UserService
	storage service.StorageService
}

func NewUserHandler(userSvc *service.UserService, storage service.StorageService) *UserHandler {
	return &UserHandler{userSvc: userSvc, storage: storage}
}

func (h *UserHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	user, err := h.userSvc.GetByID(userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.userSvc.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) GetStaffs(w http.ResponseWriter, r *http.Request) {
	staff, err := h.userSvc.GetStaffs()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, staff)
}

type updateUserRequest struct {
	PersonalID      string `json:"personal_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Image           string `json:"user_image"`
	Address         string `json:"address"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	updated, err := h.userSvc.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		PersonalID:      req.PersonalID,
		Name:            req.Name,
		Email:           req.Email,
		Image:           req.Image,
		Address:         req.Address,
		PhoneNumber:     req.PhoneNumber,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.profile_update", "user_id", userID)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"updatedUser": updated,
		"message":     "Update user success",
	})
}

// UploadImage stores a profile image in object storage, records its key on
// the user and returns a presigned URL for immediate display.
func (h *UserHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	if h.storage == nil {
		response.Error(w, r, http.StatusNotImplemented, "STORAGE_DISABLED", "image storage is not configured", nil)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing image file", nil)
		return
	}
	defer file.Close()

	objectKey, err := h.storage.UploadProfileImage(r.Context(), userID, file, header.Size)
	if err != nil {
		switch err {
		case service.ErrFileTooBig, service.ErrInvalidFileType:
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		}
		return
	}
	if err := h.userSvc.SetImage(r.Context(), userID, objectKey); err != nil {
		writeServiceError(w, r, err)
		return
	}
	url, err := h.storage.ProfileImageURL(r.Context(), objectKey)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	observability.Audit(r, "user.image_upload", "user_id", userID)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user_image": objectKey,
		"url":        url,
	})
}
