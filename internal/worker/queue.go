package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue is a FIFO of raw JSON payloads.
type Queue interface {
	// BPop waits up to timeout for the next payload. ok is false on timeout.
	BPop(ctx context.Context, timeout time.Duration) (payload string, ok bool, err error)
	// Pop returns the next payload without waiting.
	Pop(ctx context.Context) (payload string, ok bool, err error)
	// Push appends payloads to the tail.
	Push(ctx context.Context, payloads ...string) error
}

// RedisQueue is a Queue backed by a Redis list.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewRedisQueue creates a new RedisQueue on the list at key.
func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key}
}

func (q *RedisQueue) BPop(ctx context.Context, timeout time.Duration) (string, bool, error) {
	result, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("blpop %s: %w", q.key, err)
	}
	if len(result) < 2 {
		return "", false, nil
	}
	return result[1], true, nil
}

func (q *RedisQueue) Pop(ctx context.Context) (string, bool, error) {
	result, err := q.rdb.LPop(ctx, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lpop %s: %w", q.key, err)
	}
	return result, true, nil
}

func (q *RedisQueue) Push(ctx context.Context, payloads ...string) error {
	if len(payloads) == 0 {
		return nil
	}
	args := make([]interface{}, len(payloads))
	for i, p := range payloads {
		args[i] = p
	}
	if err := q.rdb.RPush(ctx, q.key, args...).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", q.key, err)
	}
	return nil
}
