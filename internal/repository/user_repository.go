package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/todosuite/user-service/internal/domain"
)

type StaffContact struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

type UserRepository interface {
	FindByID(id string) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	Create(user *domain.User) error
	Update(user *domain.User) error
	UpdateFields(id string, fields map[string]any) error
	ListStaff() ([]StaffContact, error)
	Search(q UserQuery) (*PageResult[domain.User], error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Create(user *domain.User) error { return r.db.Create(user).Error }
func (r *GormUserRepository) Update(user *domain.User) error { return r.db.Save(user).Error }

// UpdateFields patches the given columns only. The last write wins; the store
// document update is the only atomicity unit, matching the rest of the
// workflow.
func (r *GormUserRepository) UpdateFields(id string, fields map[string]any) error {
	tx := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListStaff returns id and email of every user holding the app-1 staff role,
// used by the notification fan-out on the client side.
func (r *GormUserRepository) ListStaff() ([]StaffContact, error) {
	var users []domain.User
	if err := r.db.Select("id", "email").Where(roleMembershipClause([]domain.Role{domain.RoleStaffApp1}), roleMembershipArgs([]domain.Role{domain.RoleStaffApp1})...).Find(&users).Error; err != nil {
		return nil, err
	}
	out := make([]StaffContact, 0, len(users))
	for _, u := range users {
		out = append(out, StaffContact{ID: u.ID, Email: u.Email})
	}
	return out, nil
}

func roleMembershipClause(roles []domain.Role) string {
	parts := make([]string, 0, len(roles))
	for range roles {
		parts = append(parts, "roles_key LIKE ?")
	}
	return strings.Join(parts, " OR ")
}

func roleMembershipArgs(roles []domain.Role) []any {
	args := make([]any, 0, len(roles))
	for _, role := range roles {
		args = append(args, fmt.Sprintf("%%,%d,%%", role))
	}
	return args
}
