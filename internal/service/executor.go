package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"stellarcade/internal/domain"
	"stellarcade/internal/events"
	"stellarcade/internal/logger"
	"stellarcade/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stellarcade_operations_total",
			Help: "Core operations by name and outcome code",
		},
		[]string{"op", "result"},
	)
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stellarcade_operation_duration_seconds",
			Help:    "Time spent in one atomic operation, including commit",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// Executor runs each core operation as one atomic unit against the store
// and hands committed events to the publisher in commit order.
type Executor struct {
	// mu spans commit and publish, so publication follows seq order.
	mu        sync.Mutex
	store     repository.Store
	publisher events.Publisher
	log       *slog.Logger
}

func NewExecutor(store repository.Store, publisher events.Publisher) *Executor {
	return &Executor{
		store:     store,
		publisher: publisher,
		log:       logger.With("component", "executor"),
	}
}

// Do runs fn in a single Update. Any error aborts the whole operation.
func (e *Executor) Do(ctx context.Context, op string, fn func(tx repository.Tx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	committed, err := e.store.Update(ctx, fn)
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		code := domain.CodeOf(err)
		operationsTotal.WithLabelValues(op, strings.ToLower(string(code))).Inc()
		if code == domain.CodeInternal {
			e.log.Error("operation failed", "op", op, "error", err)
		} else {
			e.log.Debug("operation rejected", "op", op, "code", code)
		}
		return err
	}

	operationsTotal.WithLabelValues(op, "ok").Inc()
	e.log.Debug("operation committed", "op", op, "events", len(committed), "duration", time.Since(start))

	if e.publisher != nil && len(committed) > 0 {
		_ = e.publisher.Publish(context.WithoutCancel(ctx), committed)
	}
	return nil
}

// View runs fn against committed state.
func (e *Executor) View(ctx context.Context, fn func(r repository.Reader) error) error {
	return e.store.View(ctx, fn)
}

// Events returns committed events after afterSeq.
func (e *Executor) Events(ctx context.Context, afterSeq int64, limit int) ([]domain.Event, error) {
	return e.store.Events(ctx, afterSeq, limit)
}

func (e *Executor) Store() repository.Store { return e.store }
