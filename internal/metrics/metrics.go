// Package metrics provides Prometheus instrumentation for the policy engine.
// It exposes counters for applied mutations and migrations, a gauge for
// outstanding duration prompts, and a histogram for event handling latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MutationsTotal counts applied policy mutations, labeled by category.
	MutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "policyd_mutations_total",
		Help: "Total number of applied policy mutations",
	}, []string{"category"})

	// DocumentsMigratedTotal counts stored documents that needed backfill or
	// legacy-shape migration on load.
	DocumentsMigratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "policyd_documents_migrated_total",
		Help: "Stored policy documents backfilled or migrated on load",
	})

	// DurationParseFailuresTotal counts free-text duration inputs that failed
	// to parse.
	DurationParseFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "policyd_duration_parse_failures_total",
		Help: "Free-text duration inputs rejected by the parser",
	})

	// PendingPrompts tracks the number of outstanding duration prompts.
	PendingPrompts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "policyd_pending_prompts",
		Help: "Duration prompts currently awaiting free-text input",
	})

	// EventsTotal counts inbound admin events, labeled by type:
	// "callback" or "text".
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "policyd_events_total",
		Help: "Total number of inbound admin events processed",
	}, []string{"type"})

	// EventLatency records end-to-end event handling latency in seconds.
	EventLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "policyd_event_latency_seconds",
		Help:    "Admin event handling latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})
)

func init() {
	prometheus.MustRegister(
		MutationsTotal,
		DocumentsMigratedTotal,
		DurationParseFailuresTotal,
		PendingPrompts,
		EventsTotal,
		EventLatency,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
