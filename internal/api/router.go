package api

import (
	"net"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/inventory-system/internal/api/handler"
	"github.com/99minutos/inventory-system/internal/api/middleware"
	"github.com/99minutos/inventory-system/internal/core/ports"
	"github.com/99minutos/inventory-system/internal/infrastructure/http/handlers"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth       ports.AuthService
	Categories ports.CategoryService
	Items      ports.ItemService
	Movements  ports.MovementService
	Dashboard  ports.DashboardService
}

// Options configures cross-cutting behaviour of the router.
type Options struct {
	JWTSecret string
	ClientURL string
	// TrustedProxies lists the CIDRs whose X-Forwarded-For header is honoured
	// when resolving the client IP. Empty means the socket peer address is used.
	TrustedProxies []string
	// LoginLimiter throttles POST /api/auth/login; nil disables throttling.
	LoginLimiter middleware.Limiter
	// Readiness lists the dependencies checked by GET /health/ready.
	Readiness []handlers.Dependency
	Logger    zerolog.Logger
	// Registerer receives the HTTP metrics; nil disables them and /metrics.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)
	e.IPExtractor = ipExtractor(opts.TrustedProxies, opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(opts.Logger))
	if opts.ClientURL != "" {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: []string{opts.ClientURL},
			AllowHeaders: []string{
				echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
				echo.HeaderAuthorization, handler.HeaderIdempotencyKey,
			},
			ExposeHeaders: []string{echo.HeaderContentDisposition, echo.HeaderRetryAfter},
		}))
	}

	if opts.Registerer != nil {
		gatherer := opts.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "inventory",
			Subsystem:  "http",
			Registerer: opts.Registerer,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	}

	// --- Health probes and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(opts.Readiness...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	userHandler := handler.NewUserHandler(svc.Auth)
	categoryHandler := handler.NewCategoryHandler(svc.Categories)
	itemHandler := handler.NewItemHandler(svc.Items)
	movementHandler := handler.NewMovementHandler(svc.Movements)
	dashboardHandler := handler.NewDashboardHandler(svc.Dashboard)

	authMiddleware := middleware.Auth(opts.JWTSecret)
	loginLimit := middleware.RateLimit(opts.LoginLimiter, "too many login attempts", opts.Logger)

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/auth/login", authHandler.Login, loginLimit)
	api.PATCH("/auth/change-password", authHandler.ChangePassword, authMiddleware)
	api.GET("/auth/me", authHandler.Me, authMiddleware)

	protected := api.Group("", authMiddleware)

	// --- Users (admin only) ---
	users := protected.Group("/users", middleware.RequireAdmin(svc.Auth))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)

	// --- Categories ---
	protected.GET("/categories", categoryHandler.List)
	protected.POST("/categories", categoryHandler.Create)
	protected.GET("/categories/:id", categoryHandler.Get)
	protected.PUT("/categories/:id", categoryHandler.Update)
	protected.DELETE("/categories/:id", categoryHandler.Delete)

	// --- Items ---
	protected.GET("/items", itemHandler.List)
	protected.POST("/items", itemHandler.Create)
	protected.GET("/items/export", itemHandler.Export)
	protected.GET("/items/reorder", itemHandler.Reorder)
	protected.GET("/items/:id", itemHandler.Get)
	protected.PUT("/items/:id", itemHandler.Update)
	protected.DELETE("/items/:id", itemHandler.Delete)

	// --- Movements ---
	protected.GET("/movements", movementHandler.List)
	protected.POST("/movements", movementHandler.Create)
	protected.GET("/movements/export", movementHandler.Export)

	// --- Dashboard ---
	protected.GET("/dashboard/summary", dashboardHandler.Summary)

	return e
}

// ipExtractor resolves the client IP used by the login throttle. Forwarding
// headers are ignored unless the request arrives from a trusted proxy.
func ipExtractor(cidrs []string, log zerolog.Logger) echo.IPExtractor {
	var trust []echo.TrustOption
	for _, cidr := range cidrs {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			log.Warn().Str("cidr", cidr).Err(err).Msg("ignoring invalid trusted proxy")
			continue
		}
		trust = append(trust, echo.TrustIPRange(ipnet))
	}
	if len(trust) == 0 {
		return echo.ExtractIPDirect()
	}
	// Loopback, link-local and private ranges stay trusted by default.
	return echo.ExtractIPFromXFFHeader(trust...)
}
