package service

import (
	"errors"
	"reflect"
	"testing"

	"github.com/todosuite/user-service/internal/domain"
)

func TestMergeRolesPositionalPatch(t *testing.T) {
	cases := []struct {
		name      string
		current   domain.RoleList
		requested domain.RoleList
		want      domain.RoleList
	}{
		{
			name:      "shorter request patches head only",
			current:   domain.RoleList{domain.RoleUser, domain.RoleAdminApp1},
			requested: domain.RoleList{domain.RoleStaffApp1},
			want:      domain.RoleList{domain.RoleStaffApp1, domain.RoleAdminApp1},
		},
		{
			name:      "equal length replaces in place",
			current:   domain.RoleList{domain.RoleUser},
			requested: domain.RoleList{domain.RoleAdminApp1},
			want:      domain.RoleList{domain.RoleAdminApp1},
		},
		{
			name:      "longer request extends",
			current:   domain.RoleList{domain.RoleUser},
			requested: domain.RoleList{domain.RoleUser, domain.RoleAdminApp1},
			want:      domain.RoleList{domain.RoleUser, domain.RoleAdminApp1},
		},
		{
			name:      "empty request keeps current",
			current:   domain.RoleList{domain.RoleUser, domain.RoleStaffApp1},
			requested: nil,
			want:      domain.RoleList{domain.RoleUser, domain.RoleStaffApp1},
		},
		{
			name:      "repeated values collapse",
			current:   nil,
			requested: domain.RoleList{domain.RoleUser, domain.RoleUser, domain.RoleUser},
			want:      domain.RoleList{domain.RoleUser},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MergeRoles(tc.current, tc.requested)
			if err != nil {
				t.Fatalf("merge: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMergeRolesRejectsUnassignableValues(t *testing.T) {
	_, err := MergeRoles(domain.RoleList{domain.RoleUser}, domain.RoleList{domain.RoleAdminApp2})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestMergeRolesRejectsOversizedRequest(t *testing.T) {
	requested := domain.RoleList{domain.RoleUser, domain.RoleAdminApp1, domain.RoleStaffApp1, domain.RoleUser}
	_, err := MergeRoles(nil, requested)
	if !errors.Is(err, ErrTooManyRoles) {
		t.Fatalf("expected ErrTooManyRoles, got %v", err)
	}
}

func TestMergeRolesValueCheckPrecedesLengthCheck(t *testing.T) {
	// Four invalid entries trip the value check, not the length check.
	requested := domain.RoleList{domain.RoleAdminApp2, domain.RoleAdminApp2, domain.RoleAdminApp2, domain.RoleAdminApp2}
	_, err := MergeRoles(nil, requested)
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
