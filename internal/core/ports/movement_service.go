package ports

import (
	"context"
	"time"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

// PostMovementInput is the DTO passed from the transport layer to MovementService.
type PostMovementInput struct {
	ItemID         string
	Type           string
	Quantity       float64
	Reason         string
	CreatedBy      string // optional
	IdempotencyKey string // optional
}

// MovementResult is returned after posting a movement.
type MovementResult struct {
	Movement *domain.Movement
	// AlreadyExisted is true when the Idempotency-Key matched an earlier movement.
	AlreadyExisted bool
}

// ListMovementsInput carries the list/export parameters.
type ListMovementsInput struct {
	ItemID string
	From   time.Time
	To     time.Time
	Limit  int
}

// MovementService defines the stock-adjustment use cases.
type MovementService interface {
	Post(ctx context.Context, input PostMovementInput) (*MovementResult, error)
	// List caps Limit at 100 (default 50).
	List(ctx context.Context, input ListMovementsInput) ([]*domain.Movement, error)
	// ListForExport caps Limit at 5000 (default 5000).
	ListForExport(ctx context.Context, input ListMovementsInput) ([]*domain.Movement, error)
}
