// Command api serves the inventory REST API.
//
// @title                       Inventory API
// @version                     1.0
// @description                 Stock tracking for a small food business: categories, items, a movement ledger and CSV exports.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/99minutos/inventory-system/docs"
	"github.com/99minutos/inventory-system/internal/api"
	"github.com/99minutos/inventory-system/internal/api/middleware"
	"github.com/99minutos/inventory-system/internal/core/ports"
	"github.com/99minutos/inventory-system/internal/core/service"
	"github.com/99minutos/inventory-system/internal/infrastructure/db/mongo"
	"github.com/99minutos/inventory-system/internal/infrastructure/db/redis"
	"github.com/99minutos/inventory-system/internal/infrastructure/http/handlers"
	"github.com/99minutos/inventory-system/internal/pkg/config"
	"github.com/99minutos/inventory-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "inventory-api",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UsesDevSecret() && !cfg.IsDevelopment() {
		log.Warn().Msg("JWT_SECRET is the development default; set a real secret")
	}

	// --- MongoDB ---
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	users := mongo.NewUserRepository(db)
	categories := mongo.NewCategoryRepository(db)
	items := mongo.NewItemRepository(db)
	movements := mongo.NewMovementRepository(db, cfg.Mongo.Transactions, log)

	if err := mongo.EnsureIndexes(ctx, users, categories, items, movements); err != nil {
		return err
	}

	readiness := []handlers.Dependency{handlers.MongoDependency(db)}

	// --- Redis (optional) ---
	var (
		rdb          *goredis.Client
		idem         ports.IdempotencyStore
		loginLimiter middleware.Limiter
	)
	if cfg.Redis.Enabled {
		rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

		idem = redis.NewIdempotencyStore(rdb)
		loginLimiter = redis.NewRateLimiter(rdb, "login", cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow)
		readiness = append(readiness, handlers.RedisDependency(rdb))
	} else {
		log.Warn().Msg("redis disabled: login throttling and idempotency keys are off")
	}

	// --- Services ---
	authService := service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL, log)
	services := api.Services{
		Auth:       authService,
		Categories: service.NewCategoryService(categories, items, log),
		Items:      service.NewItemService(items, categories, log),
		Movements:  service.NewMovementService(movements, items, idem, log),
		Dashboard:  service.NewDashboardService(items),
	}

	e := api.NewRouter(services, api.Options{
		JWTSecret:      cfg.JWTSecret,
		ClientURL:      cfg.ClientURL,
		TrustedProxies: cfg.TrustedProxies,
		LoginLimiter:   loginLimiter,
		Readiness:      readiness,
		Logger:         log,
		Registerer:     prometheus.DefaultRegisterer,
		Gatherer:       prometheus.DefaultGatherer,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
