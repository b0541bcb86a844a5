package ports

import (
	"context"
	"time"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

// CreateItemInput carries all data needed to create an item.
type CreateItemInput struct {
	Name        string
	CategoryID  string
	Unit        string
	Quantity    float64
	MinQuantity float64
	MaxQuantity *float64
	Supplier    string
	ExpiryDate  *time.Time
}

// ReorderLine is a low-stock item with the amount suggested to order.
type ReorderLine struct {
	Item      *domain.Item
	Suggested float64
}

// ItemService defines use-case operations for items.
type ItemService interface {
	List(ctx context.Context, filter ItemFilter) ([]*domain.Item, error)
	Get(ctx context.Context, id string) (*domain.Item, error)
	Create(ctx context.Context, input CreateItemInput) (*domain.Item, error)
	Update(ctx context.Context, id string, upd ItemUpdate) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
	// ReorderList returns the low-stock items matching filter with their
	// suggested order amount. filter.LowStock is forced on.
	ReorderList(ctx context.Context, filter ItemFilter) ([]ReorderLine, error)
}
