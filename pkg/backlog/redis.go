package backlog

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKey = "xdfsplit:backlog"

// RedisQueue keeps the backlog in a Redis set, shared between the
// acquisition machines that enqueue and the worker that drains.
type RedisQueue struct {
	client *redis.Client
}

// RedisConfig holds connection settings for the backlog set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisQueue connects and verifies the server is reachable.
func NewRedisQueue(ctx context.Context, cfg RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("backlog: connecting to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisQueue{client: client}, nil
}

// Enqueue adds a container to the set.
func (q *RedisQueue) Enqueue(ctx context.Context, containerPath string) error {
	if err := q.client.SAdd(ctx, redisKey, containerPath).Err(); err != nil {
		return fmt.Errorf("backlog: enqueueing %s: %w", containerPath, err)
	}
	return nil
}

// List returns the queued container paths.
func (q *RedisQueue) List(ctx context.Context) ([]string, error) {
	paths, err := q.client.SMembers(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("backlog: listing queue: %w", err)
	}
	return paths, nil
}

// Remove drops a container from the set.
func (q *RedisQueue) Remove(ctx context.Context, containerPath string) error {
	if err := q.client.SRem(ctx, redisKey, containerPath).Err(); err != nil {
		return fmt.Errorf("backlog: removing %s: %w", containerPath, err)
	}
	return nil
}

// Close releases the connection.
func (q *RedisQueue) Close() error { return q.client.Close() }
