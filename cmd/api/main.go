package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/cache"
	"github.com/ariffaisalsheam/menux-app/internal/config"
	"github.com/ariffaisalsheam/menux-app/internal/database"
	"github.com/ariffaisalsheam/menux-app/internal/handlers"
	"github.com/ariffaisalsheam/menux-app/internal/jobs"
	"github.com/ariffaisalsheam/menux-app/internal/log"
	"github.com/ariffaisalsheam/menux-app/internal/metrics"
	"github.com/ariffaisalsheam/menux-app/internal/middleware"
	"github.com/ariffaisalsheam/menux-app/internal/queue"
	"github.com/ariffaisalsheam/menux-app/internal/repository"
	"github.com/ariffaisalsheam/menux-app/internal/security"
	"github.com/ariffaisalsheam/menux-app/internal/server"
	"github.com/ariffaisalsheam/menux-app/internal/service"
	"github.com/ariffaisalsheam/menux-app/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)
	if cfg.Security.JWTAccessSecret == "" {
		logger.Fatal().Msg("security.jwtaccesssecret must be set")
	}

	ctx := context.Background()

	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal().Err(err).Msg("database migration failed")
		}
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	avatarStore, err := storage.NewAvatarStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := avatarStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure avatar bucket failed")
	}

	users := repository.NewUserRepository(dbPool)
	sessions := repository.NewSessionRepository(dbPool)
	producer := queue.NewProducer(redisClient, cfg.Queue.Stream)
	hasher := security.NewPasswordHasher(security.DefaultParams)
	tokens := security.NewTokenIssuer(cfg.Security.JWTAccessSecret, cfg.Security.JWTAccessTTL)

	authService := service.NewAuthService(
		users, sessions, cache.NewTokenBlacklist(redisClient), producer,
		tokens, hasher, cfg.Security, logger,
	)
	accountService := service.NewAccountService(
		users, sessions, cache.NewResetTokenStore(redisClient), producer,
		hasher, cfg.Security, logger,
	)
	avatarService := service.NewAvatarService(users, avatarStore, cfg.Storage.MaxAvatarSize, logger)

	handlerSet := handlers.NewHandlerSet(logger, authService, accountService, avatarService, handlers.Options{
		Environment:   cfg.Environment,
		MaxAvatarSize: cfg.Storage.MaxAvatarSize,
		Limiter:       middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		Checks: map[string]handlers.HealthCheck{
			"postgres": dbPool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"storage":  avatarStore.Ping,
		},
	})

	engine := server.NewEngine(logger, server.EngineOptions{
		Environment: cfg.Environment,
		Metrics:     metrics.New("menux_api"),
		CORSOrigins: cfg.AllowCORSOrigins,
	})
	handlerSet.Register(engine.Group("/api"))
	httpServer := server.NewHTTPServer(cfg.HTTP, engine, logger)

	scheduler := jobs.NewScheduler(producer, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop(5 * time.Second)

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
