package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/todosuite/user-service/internal/domain"
)

// roleSearchTerms maps the role words accepted in the search box onto role
// numbers across both applications.
var roleSearchTerms = map[string][]domain.Role{
	"user":  {domain.RoleUser, domain.RoleUserApp2},
	"admin": {domain.RoleAdminApp1, domain.RoleAdminApp2},
	"staff": {domain.RoleStaffApp1, domain.RoleStaffApp2},
}

var sortableColumns = map[string]struct{}{
	"personal_id":  {},
	"name":         {},
	"email":        {},
	"address":      {},
	"phone_number": {},
	"status":       {},
	"created_at":   {},
	"updated_at":   {},
}

type UserQuery struct {
	// Search matches a role word (user/admin/staff) or a substring of the
	// profile fields, case-insensitively.
	Search   string
	SortBy   string
	SortDesc bool
	Page     PageRequest
}

func (r *GormUserRepository) Search(q UserQuery) (*PageResult[domain.User], error) {
	tx := r.db.Model(&domain.User{})

	term := strings.TrimSpace(q.Search)
	if roles, ok := roleSearchTerms[strings.ToLower(term)]; ok {
		tx = tx.Where(roleMembershipClause(roles), roleMembershipArgs(roles)...)
	} else if term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		tx = tx.Where(
			"LOWER(personal_id) LIKE ? OR LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(address) LIKE ? OR LOWER(phone_number) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	sortBy := q.SortBy
	if _, ok := sortableColumns[sortBy]; !ok {
		sortBy = "name"
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	tx = tx.Order(fmt.Sprintf("%s %s", sortBy, dir))

	page := normalizePageRequest(q.Page)
	if !page.All {
		tx = tx.Offset((page.Page - 1) * page.PageSize).Limit(page.PageSize)
	}

	var users []domain.User
	if err := tx.Find(&users).Error; err != nil {
		return nil, err
	}

	if page.All {
		return &PageResult[domain.User]{
			Items:      users,
			Page:       1,
			PageSize:   int(total),
			Total:      total,
			TotalPages: 1,
		}, nil
	}
	return &PageResult[domain.User]{
		Items:      users,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      total,
		TotalPages: calcTotalPages(total, page.PageSize),
	}, nil
}
