package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

const (
	maxItemName     = 200
	maxItemUnit     = 50
	maxItemSupplier = 200
)

type ItemService struct {
	items      ports.ItemRepository
	categories ports.CategoryRepository
	logger     zerolog.Logger
}

func NewItemService(items ports.ItemRepository, categories ports.CategoryRepository, logger zerolog.Logger) *ItemService {
	return &ItemService{items: items, categories: categories, logger: logger}
}

func (s *ItemService) List(ctx context.Context, filter ports.ItemFilter) ([]*domain.Item, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.items.List(ctx, filter)
}

func (s *ItemService) Get(ctx context.Context, id string) (*domain.Item, error) {
	return s.items.FindByID(ctx, id)
}

func (s *ItemService) Create(ctx context.Context, input ports.CreateItemInput) (*domain.Item, error) {
	name := strings.TrimSpace(input.Name)
	unit := strings.TrimSpace(input.Unit)
	if err := validateItemFields(&name, &unit, &input.Supplier, &input.Quantity, &input.MinQuantity, input.MaxQuantity); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.items.Create(ctx, &domain.Item{
		Name:        name,
		CategoryID:  input.CategoryID,
		Unit:        unit,
		Quantity:    input.Quantity,
		MinQuantity: input.MinQuantity,
		MaxQuantity: input.MaxQuantity,
		Supplier:    input.Supplier,
		ExpiryDate:  input.ExpiryDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create item")
		return nil, err
	}

	s.logger.Info().Str("item_id", created.ID).Str("category_id", created.CategoryID).Msg("item created")
	return created, nil
}

// Update applies a partial update. A quantity supplied here is written as-is
// and does not produce a ledger entry.
func (s *ItemService) Update(ctx context.Context, id string, upd ports.ItemUpdate) (*domain.Item, error) {
	if upd.Name != nil {
		v := strings.TrimSpace(*upd.Name)
		upd.Name = &v
	}
	if upd.Unit != nil {
		v := strings.TrimSpace(*upd.Unit)
		upd.Unit = &v
	}
	if err := validateItemFields(upd.Name, upd.Unit, upd.Supplier, upd.Quantity, upd.MinQuantity, upd.MaxQuantity); err != nil {
		return nil, err
	}
	if upd.CategoryID != nil {
		if err := s.requireCategory(ctx, *upd.CategoryID); err != nil {
			return nil, err
		}
	}

	var before *domain.Item
	if upd.Quantity != nil {
		current, err := s.items.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		before = current
	}

	updated, err := s.items.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	if before != nil && before.Quantity != updated.Quantity {
		s.logger.Warn().
			Str("item_id", id).
			Float64("from", before.Quantity).
			Float64("to", updated.Quantity).
			Msg("quantity edited directly, ledger not updated")
	}
	return updated, nil
}

func (s *ItemService) Delete(ctx context.Context, id string) error {
	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("item_id", id).Msg("item deleted")
	return nil
}

func (s *ItemService) ReorderList(ctx context.Context, filter ports.ItemFilter) ([]ports.ReorderLine, error) {
	filter.LowStock = true
	items, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	lines := make([]ports.ReorderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, ports.ReorderLine{Item: it, Suggested: it.ReorderSuggestion()})
	}
	return lines, nil
}

func (s *ItemService) requireCategory(ctx context.Context, categoryID string) error {
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) || errors.Is(err, domain.ErrInvalidID) {
			return domain.NewValidationError("categoryId", "category does not exist")
		}
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

// validateItemFields checks the fields that are present; nil means "not supplied".
func validateItemFields(name, unit, supplier *string, qty, minQty, maxQty *float64) error {
	verr := &domain.ValidationError{}
	if name != nil {
		switch n := utf8.RuneCountInString(*name); {
		case n == 0:
			verr.Add("name", "name is required")
		case n > maxItemName:
			verr.Add("name", "name must be at most 200 characters")
		}
	}
	if unit != nil {
		switch n := utf8.RuneCountInString(*unit); {
		case n == 0:
			verr.Add("unit", "unit is required")
		case n > maxItemUnit:
			verr.Add("unit", "unit must be at most 50 characters")
		}
	}
	if supplier != nil && utf8.RuneCountInString(*supplier) > maxItemSupplier {
		verr.Add("supplier", "supplier must be at most 200 characters")
	}
	if qty != nil && *qty < 0 {
		verr.Add("quantity", "quantity must be at least 0")
	}
	if minQty != nil && *minQty < 0 {
		verr.Add("minQuantity", "minQuantity must be at least 0")
	}
	if maxQty != nil && *maxQty < 0 {
		verr.Add("maxQuantity", "maxQuantity must be at least 0")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}
