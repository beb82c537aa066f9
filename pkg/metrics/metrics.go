// Package metrics holds the Prometheus collectors notepad reports into.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "notepad"

// Metrics holds Prometheus metrics for the note store.
type Metrics struct {
	Mutations       *prometheus.CounterVec
	MutationSeconds *prometheus.HistogramVec
	Refreshes       *prometheus.CounterVec
	Subscribers     *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which suits tests and embedding.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "mutations_total",
				Help:      "Total number of store mutations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		MutationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "mutation_duration_seconds",
				Help:      "Store mutation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "live",
				Name:      "refreshes_total",
				Help:      "Total number of live query refreshes by trigger",
			},
			[]string{"trigger"},
		),
		Subscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "live",
				Name:      "subscribers",
				Help:      "Number of live subscriptions by query kind",
			},
			[]string{"query"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Mutations, m.MutationSeconds, m.Refreshes, m.Subscribers)
	}
	return m
}

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeIgnored = "ignored"
	OutcomeError   = "error"
)
