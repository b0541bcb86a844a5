package ports

import (
	"context"
	"time"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

// ItemFilter carries the list/export query parameters for items.
type ItemFilter struct {
	CategoryID string // optional: exact category match
	LowStock   bool   // optional: quantity <= min_quantity
	Search     string // optional: case-insensitive substring match on name
}

// ItemUpdate is a partial update; nil fields are left untouched.
// ClearExpiry removes the expiry date and takes precedence over ExpiryDate.
type ItemUpdate struct {
	Name        *string
	CategoryID  *string
	Unit        *string
	Quantity    *float64
	MinQuantity *float64
	MaxQuantity *float64
	Supplier    *string
	ExpiryDate  *time.Time
	ClearExpiry bool
}

// ItemRepository defines persistence for items. Read paths join the category name.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	Update(ctx context.Context, id string, upd ItemUpdate) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
	// List returns matching items sorted by name.
	List(ctx context.Context, filter ItemFilter) ([]*domain.Item, error)
	ExistsByCategory(ctx context.Context, categoryID string) (bool, error)
}
