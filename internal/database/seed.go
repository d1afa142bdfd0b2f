package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/todosuite/user-service/internal/domain"
	"github.com/todosuite/user-service/internal/security"
)

type SeedReport struct {
	CreatedAdmin bool   `json:"created_admin"`
	GrantedAdmin bool   `json:"granted_admin"`
	Password     string `json:"-"`
	Noop         bool   `json:"noop"`
}

// Seed grants the admin role to the bootstrap account. When no user with that
// email exists yet, an active admin account is created with a random password,
// returned once in the report so the operator can note it down.
func Seed(db *gorm.DB, bootstrapAdminEmail string) (*SeedReport, error) {
	report := &SeedReport{}
	email := strings.TrimSpace(strings.ToLower(bootstrapAdminEmail))
	if email == "" {
		report.Noop = true
		return report, nil
	}

	var u domain.User
	err := db.Where("email = ?", email).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		password, err := security.NewRandomString(24)
		if err != nil {
			return nil, err
		}
		hash, err := security.HashPassword(password)
		if err != nil {
			return nil, err
		}
		u = domain.User{
			Name:         "Bootstrap Admin",
			Email:        email,
			PasswordHash: hash,
			Roles:        domain.RoleList{domain.RoleUser, domain.RoleAdminApp1},
			Status:       domain.StatusActive,
		}
		if err := db.Create(&u).Error; err != nil {
			return nil, fmt.Errorf("create bootstrap admin: %w", err)
		}
		report.CreatedAdmin = true
		report.Password = password
		return report, nil
	case err != nil:
		return nil, err
	}

	if u.HasRole(domain.RoleAdminApp1) {
		report.Noop = true
		return report, nil
	}
	u.Roles = append(u.Roles, domain.RoleAdminApp1).Dedupe()
	if err := db.Save(&u).Error; err != nil {
		return nil, fmt.Errorf("grant bootstrap admin role: %w", err)
	}
	report.GrantedAdmin = true
	return report, nil
}
