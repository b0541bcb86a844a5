package ports

import (
	"context"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

// DashboardSummary is the landing-page overview.
type DashboardSummary struct {
	TotalItems        int
	LowStockCount     int
	ExpiringSoonCount int
	ExpiringSoon      []*domain.Item // first few, soonest first
}

type DashboardService interface {
	Summary(ctx context.Context) (*DashboardSummary, error)
}
