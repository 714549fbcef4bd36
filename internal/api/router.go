package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sitecore/order-marketplace/internal/api/docs"
	"github.com/sitecore/order-marketplace/internal/api/handler"
	"github.com/sitecore/order-marketplace/internal/api/middleware"
	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	Marketplace ports.MarketplaceService
	Auth        ports.AuthService
	JWTSecret   string

	LoginRate  float64
	LoginBurst int

	Checks []handler.DependencyCheck

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "marketplace",
		Registerer: cfg.Registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(cfg.Auth)
	orderHandler := handler.NewOrderHandler(cfg.Marketplace)
	messageHandler := handler.NewMessageHandler(cfg.Marketplace)
	statsHandler := handler.NewStatsHandler(cfg.Marketplace)

	clientOnly := middleware.RBAC(domain.RoleClient)
	executorOnly := middleware.RBAC(domain.RoleExecutor)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login, middleware.LoginRateLimit(cfg.LoginRate, cfg.LoginBurst))

	// --- Marketplace routes ---
	v1 := e.Group("/v1", middleware.Auth(cfg.JWTSecret))
	v1.GET("/me", statsHandler.Profile)

	v1.GET("/orders", orderHandler.List)
	v1.POST("/orders", orderHandler.Create, clientOnly)
	v1.GET("/orders/available", orderHandler.Available, executorOnly)
	v1.GET("/orders/:id", orderHandler.Get)
	v1.DELETE("/orders/:id", orderHandler.Withdraw, clientOnly)
	v1.POST("/orders/:id/claim", orderHandler.Claim, executorOnly)
	v1.POST("/orders/:id/status", orderHandler.SetStatus)
	v1.POST("/orders/:id/reject", orderHandler.Reject, executorOnly)

	v1.GET("/orders/:id/messages", messageHandler.List)
	v1.POST("/orders/:id/messages", messageHandler.Send)
	v1.POST("/orders/:id/messages/read", messageHandler.MarkRead)

	v1.GET("/stats/me", statsHandler.Me)
	v1.GET("/stats/global", statsHandler.Global, executorOnly)

	// --- Health checks and tooling (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(cfg.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: cfg.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
