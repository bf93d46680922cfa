package model

import "time"

// Invitation is a pending offer from a manager to an email address. The token
// is single-use for acceptance; declining removes the row entirely.
type Invitation struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	ManagerID int64     `json:"manager_id"`
	Token     string    `json:"-"`
	Accepted  bool      `json:"accepted"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordResetToken is a single-use, expiring token tied to one user.
type PasswordResetToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	Used      bool
}
