package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/domain"
	redisRepo "github.com/itinerary-microservice/internal/repository/redis"
)

const (
	testStream = "test:stream:itinerary:optimize"
	testGroup  = "test-group"
)

// getTestRedisClient starts an in-process redis for the test
func getTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// TestStreamRepository_CreateConsumerGroup tests consumer group creation
func TestStreamRepository_CreateConsumerGroup(t *testing.T) {
	client := getTestRedisClient(t)
	repo := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx := context.Background()

	err := repo.CreateConsumerGroup(ctx, testStream, testGroup)
	require.NoError(t, err)

	// MKSTREAM creates the stream together with the group
	exists, err := client.Exists(ctx, testStream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	// Creating again should not error (BUSYGROUP handled)
	err = repo.CreateConsumerGroup(ctx, testStream, testGroup)
	assert.NoError(t, err)
}

// TestStreamRepository_PublishAndConsume tests a full publish/consume/ack cycle
func TestStreamRepository_PublishAndConsume(t *testing.T) {
	client := getTestRedisClient(t)
	repo := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.CreateConsumerGroup(ctx, testStream, testGroup))

	event := domain.OptimizeRequestedEvent{
		RequestID:   uuid.New(),
		RouteID:     uuid.New(),
		OwnerID:     "u1",
		Mode:        domain.OptimizeDistance,
		RequestedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.PublishToStream(ctx, testStream, event))
	require.NoError(t, repo.PublishToStream(ctx, testStream, event))

	messages, err := repo.ConsumeBatch(ctx, testStream, testGroup, "consumer-1", 10, 50*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	var decoded domain.OptimizeRequestedEvent
	require.NoError(t, json.Unmarshal([]byte(messages[0].Data), &decoded))
	assert.Equal(t, event.RouteID, decoded.RouteID)
	assert.Equal(t, domain.OptimizeDistance, decoded.Mode)

	pendingArgs := &redis.XPendingExtArgs{Stream: testStream, Group: testGroup, Start: "-", End: "+", Count: 10}
	pending, err := client.XPendingExt(ctx, pendingArgs).Result()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, repo.AckMessages(ctx, testStream, testGroup, []string{messages[0].ID, messages[1].ID}))

	pending, err = client.XPendingExt(ctx, pendingArgs).Result()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// TestStreamRepository_ConsumeBatch_Empty tests that an idle stream yields no messages
func TestStreamRepository_ConsumeBatch_Empty(t *testing.T) {
	client := getTestRedisClient(t)
	repo := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.CreateConsumerGroup(ctx, testStream, testGroup))

	messages, err := repo.ConsumeBatch(ctx, testStream, testGroup, "consumer-1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

// TestStreamRepository_ConsumeBatch_RespectsCount tests the batch size limit
func TestStreamRepository_ConsumeBatch_RespectsCount(t *testing.T) {
	client := getTestRedisClient(t)
	repo := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.CreateConsumerGroup(ctx, testStream, testGroup))
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.PublishToStream(ctx, testStream, map[string]int{"n": i}))
	}

	first, err := repo.ConsumeBatch(ctx, testStream, testGroup, "consumer-1", 3, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, first, 3)

	rest, err := repo.ConsumeBatch(ctx, testStream, testGroup, "consumer-1", 3, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	assert.NoError(t, repo.AckMessage(ctx, testStream, testGroup, first[0].ID))
	assert.NoError(t, repo.AckMessages(ctx, testStream, testGroup, nil))
}
