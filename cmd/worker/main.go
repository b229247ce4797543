package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/ariffaisalsheam/menux-app/internal/cache"
	"github.com/ariffaisalsheam/menux-app/internal/config"
	"github.com/ariffaisalsheam/menux-app/internal/database"
	"github.com/ariffaisalsheam/menux-app/internal/log"
	"github.com/ariffaisalsheam/menux-app/internal/mail"
	"github.com/ariffaisalsheam/menux-app/internal/queue"
	"github.com/ariffaisalsheam/menux-app/internal/repository"
	"github.com/ariffaisalsheam/menux-app/internal/tasks"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}

	logger := log.WithLevel(log.New(cfg.Environment), cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, config.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	processor := tasks.NewProcessor(
		logger,
		mail.NewMailer(cfg.Mail, logger),
		mail.NewComposer(cfg.Mail.WebBaseURL),
		repository.NewSessionRepository(pool),
	)
	consumer := queue.NewConsumer(client, queue.ConsumerOptions{
		Stream:           cfg.Redis.Stream,
		Group:            cfg.Redis.Group,
		Consumer:         cfg.Redis.Consumer,
		ClaimInterval:    cfg.Queues.ClaimInterval,
		BlockTimeout:     cfg.Queues.BlockTimeout,
		MaxDeliveries:    cfg.Queues.MaxDeliveries,
		DeadLetterStream: cfg.Queues.DeadLetterStream,
	}, logger, processor)

	logger.Info().Str("stream", cfg.Redis.Stream).Msg("worker started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
	}
	logger.Info().Msg("worker exited")
}
