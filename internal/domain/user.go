package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
)

// User is the identity record. The password hash never leaves the server;
// the roles column keeps insertion order because the role-merge operation is
// positional.
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	PersonalID   string     `gorm:"size:64;index" json:"personal_id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Address      string     `gorm:"size:512" json:"address"`
	PhoneNumber  string     `gorm:"size:32" json:"phone_number"`
	Image        string     `gorm:"size:1024" json:"user_image"`
	PasswordHash string     `gorm:"size:1024;not null" json:"-"`
	Roles        RoleList   `gorm:"serializer:json" json:"role"`
	// RolesKey mirrors Roles as ",0,1," so membership queries stay plain
	// SQL across postgres and sqlite. Maintained by the save hooks.
	RolesKey  string     `gorm:"size:32;index" json:"-"`
	Status    UserStatus `gorm:"size:32;not null;default:active;index:idx_users_status" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return u.BeforeSave(tx)
}

func (u *User) BeforeSave(_ *gorm.DB) error {
	u.RolesKey = u.Roles.Key()
	return nil
}

func (u *User) HasRole(r Role) bool { return u.Roles.Contains(r) }
