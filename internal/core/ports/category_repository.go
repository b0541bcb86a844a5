package ports

import (
	"context"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

// CategoryUpdate is a partial update; nil fields are left untouched.
type CategoryUpdate struct {
	Name        *string
	Description *string
}

// CategoryRepository defines persistence for categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	Update(ctx context.Context, id string, upd CategoryUpdate) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
	// List returns all categories sorted by name.
	List(ctx context.Context) ([]*domain.Category, error)
	// UpsertByName creates the category if no category with that name exists.
	UpsertByName(ctx context.Context, name string) error
}
