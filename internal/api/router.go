package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/identity-service/docs"
	"github.com/99minutos/identity-service/internal/api/handler"
	"github.com/99minutos/identity-service/internal/api/middleware"
	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// Deps is everything the HTTP layer needs. All fields except HealthChecks
// and CORSOrigins are required.
type Deps struct {
	Log          zerolog.Logger
	Auth         ports.AuthService
	Users        ports.UserService
	Tokens       middleware.AccessVerifier
	Limiter      ports.RateLimiter
	HealthChecks map[string]handler.CheckFunc
	CORSOrigins  []string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// Request metrics get their own registry so several routers can coexist
	// in one process. /metrics serves it alongside the default registry.
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	// Outside the request logger so it observes the status the error
	// handler wrote.
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "identity",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
		},
		DoNotUseRequestPathFor404: true,
	}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "no-referrer",
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.BodyLimit("10M"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users)
	healthHandler := handler.NewHealthHandler(d.HealthChecks)

	authn := middleware.Authenticate(d.Tokens)
	limit := middleware.RateLimit(d.Limiter, d.Log)
	adminOnly := middleware.Authorize(domain.RoleAdmin)

	// --- Public auth routes ---
	v1 := e.Group("/api/v1")
	v1.POST("/auth/register", authHandler.Register, limit)
	v1.POST("/auth/login", authHandler.Login, limit)
	v1.POST("/auth/refresh", authHandler.Refresh, limit)

	// --- Authenticated routes (rate limited per user) ---
	v1.GET("/auth/profile", authHandler.Profile, authn, limit)
	v1.POST("/auth/logout", authHandler.Logout, authn, limit)
	v1.PATCH("/users/me", userHandler.UpdateMe, authn, limit)

	// --- Admin routes ---
	v1.GET("/users", userHandler.List, authn, limit, adminOnly)
	v1.GET("/users/:id", userHandler.Get, authn, limit, adminOnly)
	v1.PATCH("/users/:id/role", userHandler.ChangeRole, authn, limit, adminOnly)
	v1.PATCH("/users/:id/status", userHandler.SetStatus, authn, limit, adminOnly)
	v1.DELETE("/users/:id", userHandler.Delete, authn, limit, adminOnly)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness: is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness: are dependencies up?
	e.GET("/api/v1/health", healthHandler.Liveness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
