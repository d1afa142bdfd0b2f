package service

import (
	"errors"

	"github.com/todosuite/user-service/internal/domain"
)

var (
	ErrInvalidRole  = errors.New("Invalid user role")
	ErrTooManyRoles = errors.New("User can only have a maximum of 3 roles")
)

// MergeRoles patches the holder's role list position by position with the
// requested list. Index i of the requested list overwrites index i of the
// current list; a longer request extends the list. The merged result is
// deduplicated keeping first occurrences. This is a positional patch, not a
// replace: current [0,1] with requested [2] yields [2,1].
func MergeRoles(current, requested domain.RoleList) (domain.RoleList, error) {
	for _, r := range requested {
		if !domain.IsAssignable(r) {
			return nil, ErrInvalidRole
		}
	}
	if len(requested) > domain.MaxRolesPerUser {
		return nil, ErrTooManyRoles
	}

	merged := append(domain.RoleList(nil), current...)
	for i, r := range requested {
		if i < len(merged) {
			merged[i] = r
		} else {
			merged = append(merged, r)
		}
	}
	return merged.Dedupe(), nil
}
