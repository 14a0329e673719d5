package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aywhoosh/iris-identity/internal/api/handler"
	"github.com/aywhoosh/iris-identity/internal/api/middleware"
	"github.com/aywhoosh/iris-identity/internal/core/ports"
)

// Dependencies carries the wired services the router needs. Construction
// happens in main so that lifecycles (audit dispatcher, DB connections)
// stay under one owner.
type Dependencies struct {
	Users   ports.UserService
	Tokens  ports.TokenService
	Audit   ports.AuditRecorder
	Limiter ports.RateLimiter

	Mongo *mongo.Database
	Redis *redis.Client // nil when the in-memory limiter is in use

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("iris_identity"))

	authHandler := handler.NewAuthHandler(deps.Users, deps.Tokens, deps.Audit, deps.Log)
	authMiddleware := middleware.Auth(deps.Tokens)
	limitMiddleware := middleware.RateLimit(deps.Limiter, deps.Log)

	// --- Auth routes ---
	// Credential-bearing endpoints sit behind the rate limiter; token
	// refresh does not, so a throttled client can still keep its session.
	e.POST("/auth/register", authHandler.Register, limitMiddleware)
	e.POST("/auth/login", authHandler.Login, limitMiddleware)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout)

	// --- Account routes (access token required) ---
	account := e.Group("", authMiddleware)
	account.GET("/auth/me", authHandler.Me)
	account.PUT("/auth/password", authHandler.ChangePassword)
	account.DELETE("/auth/account", authHandler.DeleteAccount)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
