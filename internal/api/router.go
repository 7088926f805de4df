package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/quacc/access-point-api/docs"
	"github.com/quacc/access-point-api/internal/api/handler"
	"github.com/quacc/access-point-api/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer is built on.
type Dependencies struct {
	AccessPoints ports.AccessPointRegistry
	Users        ports.UserRegistry
	Reports      ports.ReportService
	Queue        handler.ReportQueue
	Registrar    ports.PushRegistrar
	Notifier     ports.Notifier
	Health       map[string]handler.Dependency
	// Metrics receives the HTTP request metrics; nil means the default
	// Prometheus registry, which /metrics also serves.
	Metrics *prometheus.Registry
	Log     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Log))

	metricsCfg := echoprometheus.MiddlewareConfig{
		Namespace: "access_points",
		Subsystem: "http",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
		},
	}
	handlerCfg := echoprometheus.HandlerConfig{}
	if deps.Metrics != nil {
		metricsCfg.Registerer = deps.Metrics
		handlerCfg.Gatherer = deps.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsCfg))

	// --- Handlers ---
	apHandler := handler.NewAccessPointHandler(deps.AccessPoints, deps.Reports, deps.Queue)
	userHandler := handler.NewUserHandler(deps.Users)
	notificationHandler := handler.NewNotificationHandler(deps.Registrar, deps.Notifier)
	healthHandler := handler.NewHealthHandler(deps.Health)

	// --- Access points ---
	e.POST("/ap", apHandler.Create)
	e.GET("/ap", apHandler.List)
	e.POST("/ap/reports/batch", apHandler.ReportBatch)
	e.GET("/ap/:id", apHandler.Get)
	e.POST("/ap/:id/report", apHandler.Report)

	// --- Users ---
	e.POST("/user", userHandler.Create)
	e.POST("/user/add", userHandler.Subscribe)
	e.GET("/user/:username", userHandler.Get)

	// --- Notifications ---
	e.POST("/notifications/subscription", notificationHandler.Register)
	e.POST("/notifications/test", notificationHandler.Test, testNotificationLimiter())
	e.GET("/notifications/vapid-public-key", notificationHandler.PublicKey)

	// --- Operations ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerCfg))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// testNotificationLimiter throttles test pushes per client IP.
func testNotificationLimiter() echo.MiddlewareFunc {
	return echomiddleware.RateLimiter(echomiddleware.NewRateLimiterMemoryStoreWithConfig(
		echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(1),
			Burst:     5,
			ExpiresIn: 3 * time.Minute,
		},
	))
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	log = log.With().Str("component", "http").Logger()
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
