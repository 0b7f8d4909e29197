package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics counts publisher outcomes per event type.
type OutboxMetrics struct {
	outcomes *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "Outbox rows handled by the publisher, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(outcomes)
	return &OutboxMetrics{outcomes: outcomes}
}

// Inc records one row result: published, retry or dead_lettered.
func (o *OutboxMetrics) Inc(eventType, outcome string) {
	if o == nil || o.outcomes == nil {
		return
	}
	o.outcomes.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
