package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// MinPasswordLength applies to provisioning, password changes and resets.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
)

// User models an account allowed to sign in.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the stored role grants admin access.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
