package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg redis.XMessage) error
}

type ConsumerOptions struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	BlockTimeout  time.Duration

	// MaxDeliveries bounds how often a failing message is handed to the
	// handler before it is moved to DeadLetterStream and acked.
	MaxDeliveries    int64
	DeadLetterStream string
}

const claimBatch = 10

type Consumer struct {
	client  *redis.Client
	opts    ConsumerOptions
	logger  zerolog.Logger
	handler MessageHandler
}

func NewConsumer(client *redis.Client, opts ConsumerOptions, logger zerolog.Logger, handler MessageHandler) *Consumer {
	if opts.ClaimInterval <= 0 {
		opts.ClaimInterval = 30 * time.Second
	}
	if opts.BlockTimeout <= 0 {
		opts.BlockTimeout = 5 * time.Second
	}
	if opts.MaxDeliveries <= 0 {
		opts.MaxDeliveries = 5
	}
	if opts.DeadLetterStream == "" {
		opts.DeadLetterStream = opts.Stream + ":dead"
	}
	return &Consumer{
		client:  client,
		opts:    opts,
		logger:  logger.With().Str("stream", opts.Stream).Str("group", opts.Group).Logger(),
		handler: handler,
	}
}

// EnsureGroup creates the stream and consumer group when they are missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.opts.Stream, c.opts.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.opts.ClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.read(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error().Err(err).Msg("stream read error")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(2 * time.Second):
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.claimStalled(ctx); err != nil {
				c.logger.Error().Err(err).Msg("claim stalled messages")
			}
		default:
		}
	}
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.opts.Group,
		Consumer: c.opts.Consumer,
		Streams:  []string{c.opts.Stream, ">"},
		Count:    10,
		Block:    c.opts.BlockTimeout,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			c.process(ctx, msg)
		}
	}
	return nil
}

// process acks only on success so failed messages stay pending and are
// picked up again by claimStalled.
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	if err := c.handler.Handle(ctx, msg); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.ID).Msg("handle message failed")
		return
	}
	if err := c.client.XAck(ctx, c.opts.Stream, c.opts.Group, msg.ID).Err(); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
	}
}

// claimStalled pages through every entry idle for longer than the claim
// interval. Entries that reached MaxDeliveries are dead-lettered instead of
// retried.
func (c *Consumer) claimStalled(ctx context.Context) error {
	start := "-"
	for {
		pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
			Stream: c.opts.Stream,
			Group:  c.opts.Group,
			Idle:   c.opts.ClaimInterval,
			Start:  start,
			End:    "+",
			Count:  claimBatch,
		}).Result()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
		if err := c.claim(ctx, pending); err != nil {
			return err
		}
		if len(pending) < claimBatch {
			return nil
		}
		start = "(" + pending[len(pending)-1].ID
	}
}

func (c *Consumer) claim(ctx context.Context, pending []redis.XPendingExt) error {
	deliveries := make(map[string]int64, len(pending))
	ids := make([]string, 0, len(pending))
	for _, entry := range pending {
		deliveries[entry.ID] = entry.RetryCount
		ids = append(ids, entry.ID)
	}

	msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.opts.Stream,
		Group:    c.opts.Group,
		Consumer: c.opts.Consumer,
		MinIdle:  c.opts.ClaimInterval,
		Messages: ids,
	}).Result()
	if err != nil {
		return err
	}

	for _, msg := range msgs {
		if c.exhausted(deliveries[msg.ID]) {
			c.deadLetter(ctx, msg, deliveries[msg.ID])
			continue
		}
		c.process(ctx, msg)
	}
	return nil
}

func (c *Consumer) exhausted(deliveries int64) bool {
	return deliveries >= c.opts.MaxDeliveries
}

// deadLetter copies msg to the dead letter stream and acks it. When the copy
// fails the message stays pending for the next pass.
func (c *Consumer) deadLetter(ctx context.Context, msg redis.XMessage, deliveries int64) {
	values := make(map[string]any, len(msg.Values)+2)
	for k, v := range msg.Values {
		values[k] = v
	}
	values["source_id"] = msg.ID
	values["deliveries"] = deliveries

	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.opts.DeadLetterStream, Values: values}).Err(); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.ID).Msg("dead letter failed")
		return
	}
	if err := c.client.XAck(ctx, c.opts.Stream, c.opts.Group, msg.ID).Err(); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
		return
	}
	c.logger.Warn().
		Str("message_id", msg.ID).
		Int64("deliveries", deliveries).
		Str("dead_letter_stream", c.opts.DeadLetterStream).
		Msg("message dead-lettered")
}
