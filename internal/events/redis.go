package events

import (
	"context"
	"encoding/json"
	"fmt"

	"stellarcade/internal/domain"

	redis "github.com/redis/go-redis/v9"
)

// RedisPublisher appends events to a Redis stream for indexers.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisPublisher(client *redis.Client, stream string, maxLen int64) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisPublisher) Publish(ctx context.Context, events []domain.Event) error {
	if p == nil || p.client == nil || len(events) == 0 {
		return nil
	}
	pipe := p.client.Pipeline()
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event %d: %w", e.Seq, err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Approx: p.maxLen > 0,
			Values: map[string]any{
				"seq":      e.Seq,
				"kind":     string(e.Kind),
				"contract": string(e.Contract),
				"hash":     e.Hash,
				"body":     string(body),
			},
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
