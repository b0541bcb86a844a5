package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

const (
	maxCategoryName        = 200
	maxCategoryDescription = 500
)

type CategoryService struct {
	categories ports.CategoryRepository
	items      ports.ItemRepository
	logger     zerolog.Logger
}

func NewCategoryService(categories ports.CategoryRepository, items ports.ItemRepository, logger zerolog.Logger) *CategoryService {
	return &CategoryService{categories: categories, items: items, logger: logger}
}

func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, input ports.CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateCategory(&name, &input.Description); err != nil {
		return nil, err
	}

	created, err := s.categories.Create(ctx, &domain.Category{
		Name:        name,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create category")
		return nil, err
	}

	s.logger.Info().Str("category_id", created.ID).Msg("category created")
	return created, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, upd ports.CategoryUpdate) (*domain.Category, error) {
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		upd.Name = &trimmed
	}
	if err := validateCategory(upd.Name, upd.Description); err != nil {
		return nil, err
	}
	return s.categories.Update(ctx, id, upd)
}

// Delete removes the category once nothing references it.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return err
	}

	inUse, err := s.items.ExistsByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if inUse {
		return domain.ErrCategoryInUse
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("category_id", id).Msg("category deleted")
	return nil
}

// validateCategory checks the fields that are present; nil means "not supplied".
func validateCategory(name, description *string) error {
	verr := &domain.ValidationError{}
	if name != nil {
		switch n := utf8.RuneCountInString(*name); {
		case n == 0:
			verr.Add("name", "name is required")
		case n > maxCategoryName:
			verr.Add("name", "name must be at most 200 characters")
		}
	}
	if description != nil && utf8.RuneCountInString(*description) > maxCategoryDescription {
		verr.Add("description", "description must be at most 500 characters")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}
