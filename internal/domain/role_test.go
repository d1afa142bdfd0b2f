package domain

import (
	"reflect"
	"testing"
)

func TestRoleListKey(t *testing.T) {
	if got := (RoleList{RoleUser, RoleAdminApp1}).Key(); got != ",0,1," {
		t.Fatalf("key = %q", got)
	}
	if got := (RoleList{}).Key(); got != "," {
		t.Fatalf("empty key = %q", got)
	}
}

func TestRoleListDedupe(t *testing.T) {
	got := RoleList{RoleUser, RoleAdminApp1, RoleUser, RoleStaffApp1, RoleAdminApp1}.Dedupe()
	want := RoleList{RoleUser, RoleAdminApp1, RoleStaffApp1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dedupe = %v, want %v", got, want)
	}
}

func TestRoleListContainsAny(t *testing.T) {
	l := RoleList{RoleUser, RoleStaffApp1}
	if !l.ContainsAny(RoleAdminApp1, RoleStaffApp1) {
		t.Fatal("expected match on staff")
	}
	if l.ContainsAny(RoleAdminApp1, RoleAdminApp2) {
		t.Fatal("unexpected match")
	}
}

func TestIsAssignable(t *testing.T) {
	for _, r := range AssignableRoles {
		if !IsAssignable(r) {
			t.Fatalf("role %d should be assignable", r)
		}
	}
	for _, r := range []Role{RoleAdminApp2, RoleStaffApp2, RoleUserApp2, Role(9)} {
		if IsAssignable(r) {
			t.Fatalf("role %d should not be assignable", r)
		}
	}
}
