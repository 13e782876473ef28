package models

import (
	"time"

	"github.com/cellar-tracker/internal/types"
)

// User represents a user account in the system
type User struct {
	ID        string         `json:"id" db:"id"`
	Email     string         `json:"email" db:"email"`
	Role      types.UserRole `json:"role" db:"role"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == types.RoleAdmin
}
