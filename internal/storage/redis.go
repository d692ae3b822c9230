package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bulk-importer/internal/config"
)

// RedisCache wraps the Redis client
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.MaxConnections,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Client returns the underlying Redis client
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

// Ping checks if Redis is reachable
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

const importQueueKey = "queue:import_jobs"

// queueTask is the wire format of a queued job.
type queueTask struct {
	Task  string    `json:"task"`
	JobID uuid.UUID `json:"job_id"`
}

// RedisQueue is a Redis-list backed task queue for import jobs. The producer
// side implements imports.Enqueuer; workers consume with Dequeue.
type RedisQueue struct {
	cache *RedisCache
}

// NewRedisQueue creates a queue on top of an existing Redis connection.
func NewRedisQueue(cache *RedisCache) *RedisQueue {
	return &RedisQueue{cache: cache}
}

// Enqueue pushes a task onto the import queue.
func (q *RedisQueue) Enqueue(ctx context.Context, task string, jobID uuid.UUID) error {
	payload, err := json.Marshal(queueTask{Task: task, JobID: jobID})
	if err != nil {
		return fmt.Errorf("failed to marshal queue task: %w", err)
	}
	if err := q.cache.client.LPush(ctx, importQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Dequeue blocks for up to timeout waiting for a task. Returns an empty task
// name when the wait expired with nothing queued.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, uuid.UUID, error) {
	result, err := q.cache.client.BRPop(ctx, timeout, importQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", uuid.Nil, nil
		}
		return "", uuid.Nil, fmt.Errorf("failed to dequeue task: %w", err)
	}
	// BRPOP returns [key, value]
	if len(result) != 2 {
		return "", uuid.Nil, fmt.Errorf("unexpected BRPOP reply length %d", len(result))
	}

	var task queueTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return "", uuid.Nil, fmt.Errorf("failed to decode queue task: %w", err)
	}
	return task.Task, task.JobID, nil
}

// Depth returns the number of queued tasks.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	return q.cache.client.LLen(ctx, importQueueKey).Result()
}
