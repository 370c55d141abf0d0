package domain

import (
	"strings"
	"time"
)

// Role enumerates access levels for accounts.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleDefault Role = "DEFAULT"
)

// Roles lists every valid role, in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleDefault}
}

// ParseRole normalizes and validates a role value.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	switch role {
	case RoleAdmin, RoleManager, RoleDefault:
		return role, true
	default:
		return "", false
	}
}

// User is the principal stored by the service. Email doubles as the login
// identifier; there is no separate username.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Role         Role
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	PasswordHash string
	DateJoined   time.Time
}

// FullName joins the name fields for display.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user holds admin capability. Superusers count
// regardless of their declared role or staff flag.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

// IsManager reports whether the declared role is MANAGER.
func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

// IsDefault reports whether the declared role is DEFAULT.
func (u *User) IsDefault() bool {
	return u.Role == RoleDefault
}
