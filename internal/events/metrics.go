package events

import (
	"context"

	"stellarcade/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stellarcade_events_total",
		Help: "Committed events by kind",
	},
	[]string{"kind"},
)

// MetricsPublisher counts committed events.
type MetricsPublisher struct{}

func (MetricsPublisher) Publish(_ context.Context, events []domain.Event) error {
	for _, e := range events {
		eventsTotal.WithLabelValues(string(e.Kind)).Inc()
	}
	return nil
}
