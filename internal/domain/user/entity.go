// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role determines which approval transitions an actor may trigger
type Role string

const (
	RoleRequester   Role = "requester"
	RoleWarehouse   Role = "warehouse"
	RoleProcurement Role = "procurement"
	RoleFinance     Role = "finance"
	RoleAdmin       Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleRequester, RoleWarehouse, RoleProcurement, RoleFinance, RoleAdmin:
		return true
	}
	return false
}

// User represents an actor for audit attribution and approval guards.
// Full account management lives outside this service.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password    string         `gorm:"not null;size:255" json:"-"` // Don't return in JSON
	FirstName   string         `gorm:"size:100" json:"first_name"`
	LastName    string         `gorm:"size:100" json:"last_name"`
	Role        Role           `gorm:"not null;size:20;default:'requester'" json:"role"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to handle business logic before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// Email should be lowercase
	u.Email = strings.ToLower(u.Email)
	return nil
}

// GetFullName returns the user's full name
func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// GetDisplayName returns display name (full name or email)
func (u *User) GetDisplayName() string {
	fullName := u.GetFullName()
	if fullName != "" {
		return fullName
	}
	return u.Email
}
