package ports

import (
	"context"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

// UserRepository defines persistence for accounts.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	// List returns all users, newest first.
	List(ctx context.Context) ([]*domain.User, error)
}
