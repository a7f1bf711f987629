// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Confirmation outcome labels.
const (
	ConfirmOutcomeConfirmed     = "confirmed"
	ConfirmOutcomeDuplicate     = "duplicate"
	ConfirmOutcomeUnpaid        = "unpaid"
	ConfirmOutcomeUpstreamError = "upstream_error"
)

var (
	// ConfirmationsTotal counts payment confirmation attempts by outcome.
	ConfirmationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_payment_confirmations_total",
			Help: "Payment confirmation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// HTTPRequestsTotal counts handled HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_http_requests_total",
			Help: "HTTP requests by method, path and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courier_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ReconcilerRunsTotal counts reconciliation sweeps by result.
	ReconcilerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_reconciler_runs_total",
			Help: "Reconciliation sweeps by result.",
		},
		[]string{"result"},
	)
)
