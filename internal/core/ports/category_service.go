package ports

import (
	"context"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

type CreateCategoryInput struct {
	Name        string
	Description string
}

// CategoryService defines use-case operations for categories.
type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	Create(ctx context.Context, input CreateCategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id string, upd CategoryUpdate) (*domain.Category, error)
	// Delete fails with domain.ErrCategoryInUse while any item references the category.
	Delete(ctx context.Context, id string) error
}
