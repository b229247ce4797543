//go:build integration

package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

type failingHandler struct {
	calls atomic.Int64
}

func (h *failingHandler) Handle(context.Context, redis.XMessage) error {
	h.calls.Add(1)
	return errors.New("smtp unavailable")
}

func newFailingConsumer(t *testing.T, client *redis.Client, maxDeliveries int64) (*Consumer, *failingHandler) {
	t.Helper()
	h := &failingHandler{}
	c := NewConsumer(client, ConsumerOptions{
		Stream:        "menux:tasks",
		Group:         "menux-workers",
		Consumer:      "worker-test",
		ClaimInterval: 10 * time.Millisecond,
		BlockTimeout:  50 * time.Millisecond,
		MaxDeliveries: maxDeliveries,
	}, zerolog.Nop(), h)
	require.NoError(t, c.EnsureGroup(context.Background()))
	return c, h
}

func pendingCount(t *testing.T, client *redis.Client) int64 {
	t.Helper()
	summary, err := client.XPending(context.Background(), "menux:tasks", "menux-workers").Result()
	require.NoError(t, err)
	return summary.Count
}

func TestFailingMessageIsDeadLettered(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	c, h := newFailingConsumer(t, client, 2)

	require.NoError(t, NewProducer(client, "menux:tasks").Enqueue(ctx, Task{
		Type: TaskPasswordResetEmail,
		Data: map[string]string{"email": "owner@menux.app", "token": "t"},
	}))

	require.NoError(t, c.read(ctx))
	assert.Equal(t, int64(1), h.calls.Load())

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, c.claimStalled(ctx))
	assert.Equal(t, int64(2), h.calls.Load())
	assert.Equal(t, int64(1), pendingCount(t, client))

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, c.claimStalled(ctx))
	assert.Equal(t, int64(2), h.calls.Load())
	assert.Equal(t, int64(0), pendingCount(t, client))

	dead, err := client.XRange(ctx, "menux:tasks:dead", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, TaskPasswordResetEmail, dead[0].Values["type"])
	assert.Equal(t, "2", dead[0].Values["deliveries"])
	assert.NotEmpty(t, dead[0].Values["source_id"])
}

func TestClaimPagesPastFirstBatch(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	c, h := newFailingConsumer(t, client, 1)

	producer := NewProducer(client, "menux:tasks")
	for i := 0; i < 25; i++ {
		require.NoError(t, producer.Enqueue(ctx, Task{Type: TaskWelcomeEmail}))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, c.read(ctx))
	}
	require.Equal(t, int64(25), h.calls.Load())
	require.Equal(t, int64(25), pendingCount(t, client))

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, c.claimStalled(ctx))

	assert.Equal(t, int64(25), h.calls.Load())
	assert.Equal(t, int64(0), pendingCount(t, client))
	n, err := client.XLen(ctx, "menux:tasks:dead").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)
}
