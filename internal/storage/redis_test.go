package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulk-importer/internal/imports"
)

// setupTestQueue creates a RedisQueue backed by a test Redis instance.
func setupTestQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return NewRedisQueue(&RedisCache{client: client}), mr
}

func TestQueueRoundTrip(t *testing.T) {
	queue, _ := setupTestQueue(t)
	ctx := context.Background()

	jobID := uuid.New()
	require.NoError(t, queue.Enqueue(ctx, imports.TaskProcessImport, jobID))

	depth, err := queue.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	task, gotID, err := queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, imports.TaskProcessImport, task)
	assert.Equal(t, jobID, gotID)

	depth, err = queue.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth)
}

func TestQueueOrderIsFIFO(t *testing.T) {
	queue, _ := setupTestQueue(t)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()
	require.NoError(t, queue.Enqueue(ctx, imports.TaskProcessImport, first))
	require.NoError(t, queue.Enqueue(ctx, imports.TaskProcessImport, second))

	_, gotID, err := queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first, gotID)

	_, gotID, err = queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second, gotID)
}

func TestDequeueEmptyQueueTimesOut(t *testing.T) {
	queue, _ := setupTestQueue(t)

	task, gotID, err := queue.Dequeue(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, task)
	assert.Equal(t, uuid.Nil, gotID)
}

func TestDequeueRejectsMalformedPayload(t *testing.T) {
	queue, mr := setupTestQueue(t)

	_, err := mr.Lpush(importQueueKey, "not json")
	require.NoError(t, err)

	_, _, err = queue.Dequeue(context.Background(), time.Second)
	assert.Error(t, err)
}
