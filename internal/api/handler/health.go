package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

const readinessTimeout = 3 * time.Second

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

// Dependency is one readiness check. An optional dependency is reported but
// never makes the service unready.
type Dependency struct {
	Check    Checker
	Optional bool
}

// MongoChecker pings db.
func MongoChecker(db *mongo.Database) Checker {
	return func(ctx context.Context) error {
		return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
	}
}

// RedisChecker pings rdb.
func RedisChecker(rdb *redis.Client) Checker {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// PushChecker fails when no VAPID key is loaded.
func PushChecker(registrar ports.PushRegistrar) Checker {
	return func(context.Context) error {
		if registrar.PublicKey() == "" {
			return domain.ErrPushDisabled
		}
		return nil
	}
}

// HealthHandler serves GET /health (liveness) and GET /health/ready (readiness).
type HealthHandler struct {
	deps map[string]Dependency
}

func NewHealthHandler(deps map[string]Dependency) *HealthHandler {
	return &HealthHandler{deps: deps}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Liveness returns 200 immediately; it confirms the process is alive.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Readiness checks every configured dependency.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make(map[string]dependencyStatus, len(h.deps))
	healthy := true
	for _, name := range names {
		dep := h.deps[name]
		if err := dep.Check(ctx); err != nil {
			state := "unhealthy"
			if dep.Optional {
				state = "disabled"
			} else {
				healthy = false
			}
			statuses[name] = dependencyStatus{Status: state, Error: err.Error()}
			continue
		}
		statuses[name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: statuses,
	})
}
