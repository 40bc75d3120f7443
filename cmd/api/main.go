package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/movie-service/internal/api/http"
	"github.com/spec-kit/movie-service/internal/api/http/handlers"
	"github.com/spec-kit/movie-service/internal/auth"
	"github.com/spec-kit/movie-service/internal/config"
	"github.com/spec-kit/movie-service/internal/events"
	"github.com/spec-kit/movie-service/internal/notify"
	"github.com/spec-kit/movie-service/internal/observability"
	"github.com/spec-kit/movie-service/internal/persistence"
	"github.com/spec-kit/movie-service/internal/ratelimit"
	"github.com/spec-kit/movie-service/internal/repository"
	"github.com/spec-kit/movie-service/internal/service"
	"github.com/spec-kit/movie-service/internal/verification"
	"github.com/spec-kit/movie-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.Pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	userRepo := repository.NewUserRepository(pg.Pool)

	var kv persistence.KeyValueStore = persistence.NewRedisKV(redis.Client)
	if cfg.Verification.Backend == "memory" {
		logger.Warn("verification sessions kept in process memory; not shared across replicas")
		kv = persistence.NewMemoryKV()
	}

	var limiter ratelimit.Limiter = ratelimit.NewRedis(redis.Client)
	if cfg.RateLimit.Backend == "local" {
		limiter = ratelimit.NewLocal(10 * time.Minute)
	}

	tokens := auth.NewTokenService(auth.NewClaimsCodec(cfg.Auth.JWTSecret), userRepo, auth.TokenConfig{
		AccessTTL:  cfg.Auth.AccessTokenTTL(),
		RefreshTTL: cfg.Auth.RefreshTokenTTL(),
	}, logger)
	sessions := verification.NewStore(kv, verification.Config{
		TTL:         cfg.Verification.SessionTTL(),
		MaxAttempts: cfg.Verification.MaxAttempts,
	}, metrics, logger)

	dispatcher := events.NewInMemoryDispatcher()
	mailQueue := notify.NewRedisMailQueue(redis.Client, cfg.Notification.MailQueue)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, mailQueue, logger, cfg.Notification), logger)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Users:      userRepo,
		Tokens:     tokens,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	gate := auth.NewPermissionGate(tokens, userRepo, limiter, metrics, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth: handlers.NewAuthHandler(authService, handlers.AuthHandlerConfig{
			RefreshMaxAge: cfg.Auth.RefreshTokenTTL(),
			SessionMaxAge: cfg.Verification.SessionTTL(),
			SecureCookies: cfg.App.Env == "production",
		}),
		Gate:    gate,
		Metrics: metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
