package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/codexam-backend/internal/config"
	"github.com/stemsi/codexam-backend/internal/model"
)

// RedisEventPublisher fans answer events out to the exam's monitor channel
// and queues them for the audit worker, in one pipeline round trip.
type RedisEventPublisher struct {
	rdb *redis.Client
}

// NewRedisEventPublisher creates a new RedisEventPublisher.
func NewRedisEventPublisher(rdb *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{rdb: rdb}
}

// Publish broadcasts and enqueues a single event.
func (p *RedisEventPublisher) Publish(ctx context.Context, event model.AnswerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, config.RedisKey.ExamMonitorChannel(event.ExamID.String()), payload)
		pipe.RPush(ctx, config.WorkerKey.PersistAnswerEventsQueue, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe streams the raw event payloads of one exam. The channel closes
// when ctx is done or the returned close func is called.
func (p *RedisEventPublisher) Subscribe(ctx context.Context, examID uuid.UUID) (<-chan string, func() error, error) {
	pubsub := p.rdb.Subscribe(ctx, config.RedisKey.ExamMonitorChannel(examID.String()))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe exam %s: %w", examID, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, pubsub.Close, nil
}
