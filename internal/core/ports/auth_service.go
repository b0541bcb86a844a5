package ports

import (
	"context"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

// CreateUserInput carries the fields an admin supplies when provisioning an account.
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     string // empty = staff
}

// AuthService covers sign-in, password management and account provisioning.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	Profile(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	// ResetPassword replaces the password without checking the old one.
	// Operator tooling only; not reachable over HTTP.
	ResetPassword(ctx context.Context, email, newPassword string) error
}
