package service

import (
	"context"
	"sort"
	"time"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

const (
	expiryWindow     = 7 * 24 * time.Hour
	expiringSoonShow = 5
)

type dashboardService struct {
	items ports.ItemRepository
	now   func() time.Time
}

func NewDashboardService(items ports.ItemRepository) ports.DashboardService {
	return &dashboardService{items: items, now: time.Now}
}

// Summary counts items, low-stock items and items expiring within a week.
func (s *dashboardService) Summary(ctx context.Context) (*ports.DashboardSummary, error) {
	items, err := s.items.List(ctx, ports.ItemFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sum := &ports.DashboardSummary{TotalItems: len(items)}
	var expiring []*domain.Item
	for _, it := range items {
		if it.IsLowStock() {
			sum.LowStockCount++
		}
		if it.ExpiresWithin(now, expiryWindow) {
			expiring = append(expiring, it)
		}
	}

	sort.SliceStable(expiring, func(i, j int) bool {
		return expiring[i].ExpiryDate.Before(*expiring[j].ExpiryDate)
	})
	sum.ExpiringSoonCount = len(expiring)
	if len(expiring) > expiringSoonShow {
		expiring = expiring[:expiringSoonShow]
	}
	sum.ExpiringSoon = expiring
	if sum.ExpiringSoon == nil {
		sum.ExpiringSoon = []*domain.Item{}
	}
	return sum, nil
}
