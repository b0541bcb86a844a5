// Command inventoryctl runs operator tasks against the inventory database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/service"
	"github.com/99minutos/inventory-system/internal/infrastructure/db/mongo"
	"github.com/99minutos/inventory-system/internal/pkg/config"
	"github.com/99minutos/inventory-system/pkg/logger"
)

const (
	Version = "0.1.0"
	appName = "inventoryctl"

	commandTimeout = 30 * time.Second
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Inventory operator tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(seedCmd(), resetPasswordCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin account and starter categories",
		Long: `Creates admin@example.com (password admin123) when no such account
exists and makes sure the default categories are present. Safe to re-run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				seeder := service.NewSeeder(st.auth, st.users, st.categories, st.log)
				res, err := seeder.Seed(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if res.AdminCreated {
					fmt.Fprintf(out, "created admin %s / %s\n", service.SeedAdminEmail, service.SeedAdminPassword)
				} else {
					fmt.Fprintf(out, "admin %s already exists\n", service.SeedAdminEmail)
				}
				fmt.Fprintf(out, "%d default categories ensured\n", res.Categories)
				return nil
			})
		},
	}
}

func resetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email> <new-password>",
		Short: "Replace a user's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				err := st.auth.ResetPassword(ctx, args[0], args[1])
				if errors.Is(err, domain.ErrUserNotFound) {
					return fmt.Errorf("no user with email %q", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
				return nil
			})
		},
	}
}

type store struct {
	auth       *service.AuthService
	users      *mongo.UserRepository
	categories *mongo.CategoryRepository
	log        zerolog.Logger
}

// withStore connects to MongoDB with the API's configuration and runs fn.
func withStore(parent context.Context, fn func(ctx context.Context, st *store) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()

	cfg := config.Load()
	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr, Service: appName})

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	users := mongo.NewUserRepository(db)
	categories := mongo.NewCategoryRepository(db)
	if err := mongo.EnsureIndexes(ctx, users, categories); err != nil {
		return err
	}

	return fn(ctx, &store{
		auth:       service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL, log),
		users:      users,
		categories: categories,
		log:        log,
	})
}
