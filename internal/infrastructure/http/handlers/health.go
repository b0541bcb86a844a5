package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const readinessTimeout = 3 * time.Second

// HealthHandler handles GET /health: liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Dependency is a named backing service checked by the readiness probe.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

// MongoDependency pings the server and runs a ping command against db.
func MongoDependency(db *mongo.Database) Dependency {
	return Dependency{
		Name: "mongodb",
		Ping: func(ctx context.Context) error {
			if err := db.Client().Ping(ctx, nil); err != nil {
				return err
			}
			return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		},
	}
}

// RedisDependency pings the Redis server.
func RedisDependency(rdb *redis.Client) Dependency {
	return Dependency{
		Name: "redis",
		Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
}

// HealthDependenciesHandler handles GET /health/ready: readiness probe.
// Redis is only listed when it is enabled.
type HealthDependenciesHandler struct {
	deps []Dependency
}

func NewHealthDependenciesHandler(deps ...Dependency) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{deps: deps}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness godoc
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready [get]
func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.deps))
	healthy := true

	for _, d := range h.deps {
		if err := d.Ping(ctx); err != nil {
			deps[d.Name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		deps[d.Name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
