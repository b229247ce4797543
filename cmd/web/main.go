package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/apiclient"
	"github.com/ariffaisalsheam/menux-app/internal/cache"
	"github.com/ariffaisalsheam/menux-app/internal/config"
	"github.com/ariffaisalsheam/menux-app/internal/log"
	"github.com/ariffaisalsheam/menux-app/internal/metrics"
	"github.com/ariffaisalsheam/menux-app/internal/server"
	"github.com/ariffaisalsheam/menux-app/internal/web"
	"github.com/ariffaisalsheam/menux-app/internal/websession"
)

func main() {
	cfg, err := config.LoadWeb()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)
	ctx := context.Background()

	var redisClient *redis.Client
	checks := map[string]web.HealthCheck{}
	if cfg.Session.Backend != "memory" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	store, err := websession.NewStore(cfg.Session, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init session store")
	}
	sessions := websession.NewManager(cfg.Session, store, logger)

	m := metrics.New("menux_web")
	clients, err := apiclient.NewFactory(cfg.API, logger, m)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init api client")
	}

	views, err := web.NewRenderer(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse templates")
	}

	h := web.New(logger, clients, sessions, views, checks)
	engine := server.NewEngine(logger, server.EngineOptions{
		Environment: cfg.Environment,
		Metrics:     m,
		OnPanic:     h.PanicPage,
	})
	h.Register(engine)
	httpServer := server.NewHTTPServer(cfg.HTTP, engine, logger)

	go func() {
		logger.Info().Str("api", cfg.API.BaseURL).Str("sessions", cfg.Session.Backend).Msg("web front end starting")
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
