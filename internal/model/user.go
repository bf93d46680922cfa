package model

import "time"

// User is an account: the unit of both identity and data ownership.
// Inventory and sales rows hang off the user that owns them, which for
// employees is their manager (see the perm package).
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	Expenses     float64   `json:"expenses"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Roles.
const (
	RoleDefault  = "default"
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleDefault, RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}
