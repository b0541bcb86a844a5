package handler

import (
	"time"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

func toCreateItemInput(r createItemRequest) (ports.CreateItemInput, error) {
	in := ports.CreateItemInput{
		Name:        r.Name,
		CategoryID:  r.CategoryID,
		Unit:        r.Unit,
		Quantity:    r.Quantity,
		MinQuantity: r.MinQuantity,
		MaxQuantity: r.MaxQuantity,
		Supplier:    r.Supplier,
	}
	if r.ExpiryDate != "" {
		t, err := parseExpiry(r.ExpiryDate)
		if err != nil {
			return in, err
		}
		in.ExpiryDate = &t
	}
	return in, nil
}

func toItemUpdate(r updateItemRequest) (ports.ItemUpdate, error) {
	upd := ports.ItemUpdate{
		Name:        r.Name,
		CategoryID:  r.CategoryID,
		Unit:        r.Unit,
		Quantity:    r.Quantity,
		MinQuantity: r.MinQuantity,
		MaxQuantity: r.MaxQuantity,
		Supplier:    r.Supplier,
	}
	if r.ExpiryDate != nil {
		if *r.ExpiryDate == "" {
			upd.ClearExpiry = true
		} else {
			t, err := parseExpiry(*r.ExpiryDate)
			if err != nil {
				return upd, err
			}
			upd.ExpiryDate = &t
		}
	}
	return upd, nil
}

func parseExpiry(s string) (time.Time, error) {
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, domain.NewValidationError("expiryDate", "expiryDate must be a date (YYYY-MM-DD or RFC 3339)")
	}
	return t, nil
}

func toReorderLines(lines []ports.ReorderLine) []reorderLineResponse {
	out := make([]reorderLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, reorderLineResponse{Item: l.Item, LowStock: true, Suggested: l.Suggested})
	}
	return out
}

func toDashboardResponse(s *ports.DashboardSummary) dashboardResponse {
	soon := s.ExpiringSoon
	if soon == nil {
		soon = []*domain.Item{}
	}
	return dashboardResponse{
		TotalItems:        s.TotalItems,
		LowStockCount:     s.LowStockCount,
		ExpiringSoonCount: s.ExpiringSoonCount,
		ExpiringSoon:      soon,
	}
}

// nonNil keeps empty listings rendering as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
