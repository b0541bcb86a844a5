package ports

import (
	"context"
	"time"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

// MovementFilter carries the list/export query parameters for movements.
type MovementFilter struct {
	ItemID string    // optional
	From   time.Time // optional: created_at >= From
	To     time.Time // optional: created_at <= To
	Limit  int       // max rows, newest first (bounded by the service)
}

// MovementRepository handles the stock ledger.
type MovementRepository interface {
	// Post applies the movement's signed delta to its item and appends the
	// movement to the ledger. Outbound movements never take quantity below
	// zero: the decrement is conditional on quantity >= m.Quantity and fails
	// with domain.ErrInsufficientStock otherwise. On success m.ID and
	// m.CreatedAt are set and the updated item is returned.
	Post(ctx context.Context, m *domain.Movement) (*domain.Item, error)
	FindByID(ctx context.Context, id string) (*domain.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*domain.Movement, error)
}

// IdempotencyStore reserves client-supplied keys so that at most one request
// per key posts a movement.
type IdempotencyStore interface {
	// Claim reserves key. When the key is already held, claimed is false and
	// movementID is the stored movement, or empty while the holder is in flight.
	Claim(ctx context.Context, key string) (movementID string, claimed bool, err error)
	// Complete stores the movement created under a claimed key.
	Complete(ctx context.Context, key, movementID string) error
	// Release frees a claimed key whose request failed.
	Release(ctx context.Context, key string) error
}
