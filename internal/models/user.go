package models

import (
	"github.com/google/uuid"
)

// User is the authenticated caller, as asserted by the auth service token
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
	Role  string    `json:"role"`
}

// UserRole represents available user roles
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleBusiness UserRole = "business"
)

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == string(RoleAdmin)
}

// CanManage reports whether the user may modify the business
func (u *User) CanManage(b *Business) bool {
	return u.IsAdmin() || b.IsOwnedBy(u.ID)
}
