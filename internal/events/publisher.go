package events

import (
	"context"

	"stellarcade/internal/domain"
	"stellarcade/internal/logger"
)

// Publisher pushes committed events to off-chain consumers. Events are
// already durable when Publish is called; a failed push is logged, never rolled back.
type Publisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Fanout publishes to every publisher in order and keeps going past failures.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, events []domain.Event) error {
	var first error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, events); err != nil {
			logger.Warn("event publish failed", "publisher", publisherName(p), "events", len(events), "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func publisherName(p Publisher) string {
	switch p.(type) {
	case *RedisPublisher:
		return "redis"
	case MetricsPublisher:
		return "metrics"
	default:
		return "custom"
	}
}
