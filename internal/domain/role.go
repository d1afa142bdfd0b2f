package domain

import (
	"strconv"
	"strings"
)

// Role is a small integer tag denoting a permission class within one of the
// co-hosted applications. The numbering is fixed and shared with the clients.
type Role int

const (
	RoleUser      Role = 0
	RoleAdminApp1 Role = 1
	RoleStaffApp1 Role = 2
	RoleAdminApp2 Role = 3
	RoleStaffApp2 Role = 4
	RoleUserApp2  Role = 5
)

// MaxRolesPerUser bounds how many simultaneous roles a user may hold.
const MaxRolesPerUser = 3

// AssignableRoles are the values accepted by the role-update operation.
var AssignableRoles = []Role{RoleUser, RoleAdminApp1, RoleStaffApp1}

type RoleList []Role

func (l RoleList) Contains(r Role) bool {
	for _, v := range l {
		if v == r {
			return true
		}
	}
	return false
}

// ContainsAny reports whether any of the given roles is present.
func (l RoleList) ContainsAny(roles ...Role) bool {
	for _, r := range roles {
		if l.Contains(r) {
			return true
		}
	}
	return false
}

// Dedupe removes repeated values preserving first-occurrence order.
func (l RoleList) Dedupe() RoleList {
	seen := make(map[Role]struct{}, len(l))
	out := make(RoleList, 0, len(l))
	for _, r := range l {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Key renders the list as ",0,1," for SQL LIKE membership lookups.
func (l RoleList) Key() string {
	var b strings.Builder
	b.WriteByte(',')
	for _, r := range l {
		b.WriteString(strconv.Itoa(int(r)))
		b.WriteByte(',')
	}
	return b.String()
}

func IsAssignable(r Role) bool {
	for _, v := range AssignableRoles {
		if v == r {
			return true
		}
	}
	return false
}
