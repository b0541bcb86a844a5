package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

const (
	SeedAdminEmail    = "admin@example.com"
	SeedAdminPassword = "admin123"
)

var defaultCategories = []string{"Dairy", "Dry goods", "Beverages", "Produce", "Meat"}

// SeedResult reports what Seed changed.
type SeedResult struct {
	AdminCreated bool
	Categories   int
}

// Seeder populates an empty installation with an admin account and starter categories.
type Seeder struct {
	auth       *AuthService
	users      ports.UserRepository
	categories ports.CategoryRepository
	log        zerolog.Logger
}

func NewSeeder(auth *AuthService, users ports.UserRepository, categories ports.CategoryRepository, log zerolog.Logger) *Seeder {
	return &Seeder{auth: auth, users: users, categories: categories, log: log}
}

// Seed is safe to run repeatedly.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	res := &SeedResult{}

	_, err := s.users.FindByEmail(ctx, SeedAdminEmail)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		if _, err := s.auth.CreateUser(ctx, ports.CreateUserInput{
			Email:    SeedAdminEmail,
			Password: SeedAdminPassword,
			Name:     "Admin",
			Role:     domain.RoleAdmin,
		}); err != nil {
			return nil, fmt.Errorf("seed admin: %w", err)
		}
		res.AdminCreated = true
		s.log.Info().Str("email", SeedAdminEmail).Msg("admin account created")
	case err != nil:
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	for _, name := range defaultCategories {
		if err := s.categories.UpsertByName(ctx, name); err != nil {
			return nil, fmt.Errorf("seed category %q: %w", name, err)
		}
		res.Categories++
	}

	return res, nil
}
