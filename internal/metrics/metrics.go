// Package metrics exposes the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts workflow transition attempts by action and outcome.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procureflow",
		Name:      "workflow_transitions_total",
		Help:      "Workflow transition attempts by action and result.",
	}, []string{"action", "result"})

	// HTTPRequestDuration observes request latency by method, route, and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "procureflow",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method, route, and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// RecordTransition counts one transition attempt.
func RecordTransition(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	TransitionsTotal.WithLabelValues(action, result).Inc()
}
