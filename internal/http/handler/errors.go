package handler

import (
	"errors"
	"net/http"

	"github.com/todosuite/user-service/internal/http/response"
	"github.com/todosuite/user-service/internal/service"
)

// writeServiceError maps workflow sentinels onto the HTTP taxonomy. Anything
// unrecognized is an internal failure; the underlying message is exposed
// because the service fronts an internal tool.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, service.ErrAccountInactive):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrNoStaff):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

func isValidationError(err error) bool {
	for _, candidate := range []error{
		service.ErrMissingFields,
		service.ErrNameTooShort,
		service.ErrNameEmpty,
		service.ErrPasswordMismatch,
		service.ErrInvalidEmail,
		service.ErrWeakPassword,
		service.ErrEmailRegistered,
		service.ErrEmailExists,
		service.ErrInvalidCredentials,
		service.ErrLoginRequired,
		service.ErrInvalidRoleSelection,
		service.ErrEmailRequired,
		service.ErrEmailNotFound,
		service.ErrInvalidRole,
		service.ErrTooManyRoles,
		service.ErrInvalidStatus,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
