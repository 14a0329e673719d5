package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aywhoosh/iris-identity/internal/api"
	"github.com/aywhoosh/iris-identity/internal/core/ports"
	"github.com/aywhoosh/iris-identity/internal/core/service"
	"github.com/aywhoosh/iris-identity/internal/infrastructure/audit"
	"github.com/aywhoosh/iris-identity/internal/infrastructure/config"
	mongodb "github.com/aywhoosh/iris-identity/internal/infrastructure/db/mongo"
	redisdb "github.com/aywhoosh/iris-identity/internal/infrastructure/db/redis"
	"github.com/aywhoosh/iris-identity/internal/infrastructure/ratelimit"
	"github.com/aywhoosh/iris-identity/internal/pkg/cryptobox"
	"github.com/aywhoosh/iris-identity/pkg/logger"
)

// Development fallbacks so the service boots with an empty environment.
// Config.Validate refuses these outside development.
const (
	devAccessSecret  = "dev-access-secret-not-for-production"
	devRefreshSecret = "dev-refresh-secret-not-for-production"
	devMasterKey     = "dev-master-key-not-for-production"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDevelopment() {
		if cfg.Token.AccessSecret == "" {
			cfg.Token.AccessSecret = devAccessSecret
		}
		if cfg.Token.RefreshSecret == "" {
			cfg.Token.RefreshSecret = devRefreshSecret
		}
		if cfg.Crypto.MasterKey == "" {
			cfg.Crypto.MasterKey = devMasterKey
		}
	}

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	var (
		rdb     *goredis.Client
		limiter ports.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rdb.Close()
		limiter = redisdb.NewSlidingWindowLimiter(rdb, cfg.RateLimit.Window, cfg.RateLimit.Max)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, using in-process rate limiter")
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Window, cfg.RateLimit.Max)
	}

	// --- Services ---
	box, err := cryptobox.New(cfg.Crypto.MasterKey, cfg.Crypto.KDFIterations, cfg.Crypto.KDFDigest)
	if err != nil {
		log.Fatal().Err(err).Msg("cryptobox setup failed")
	}

	userRepo := mongodb.NewUserRepository(db)
	tokenRepo := mongodb.NewRefreshTokenRepository(db)
	auditRepo := mongodb.NewAuditLogRepository(db)

	userSvc := service.NewUserService(userRepo, service.PasswordPolicy{
		MinLength:     cfg.Password.MinLength,
		RequireUpper:  cfg.Password.RequireUpper,
		RequireLower:  cfg.Password.RequireLower,
		RequireDigit:  cfg.Password.RequireDigit,
		RequireSymbol: cfg.Password.RequireSymbol,
		BcryptCost:    cfg.Password.BcryptCost,
	})

	tokenSvc, err := service.NewTokenService(userRepo, tokenRepo, service.TokenConfig{
		AccessSecret:  cfg.Token.AccessSecret,
		RefreshSecret: cfg.Token.RefreshSecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		Algorithm:     cfg.Token.Algorithm,
		Issuer:        cfg.Token.Issuer,
		Audience:      cfg.Token.Audience,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token service setup failed")
	}

	auditSvc := service.NewAuditService(auditRepo, cfg.Crypto.AnonymizeAudit, box, logger.Component("audit"))
	dispatcher := audit.NewDispatcher(0, auditSvc, logger.Component("audit-dispatcher"))
	dispatcher.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Users:   userSvc,
		Tokens:  tokenSvc,
		Audit:   dispatcher,
		Limiter: limiter,
		Mongo:   db,
		Redis:   rdb,
		Log:     log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
