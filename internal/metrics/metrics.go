package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Local API
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldagent_http_requests_total",
		Help: "Local API requests by method, route and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fieldagent_http_request_duration_seconds",
		Help:    "Local API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// Remote backend
	RemoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldagent_remote_requests_total",
		Help: "Requests to the HR/CRM backend by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	RemoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fieldagent_remote_request_duration_seconds",
		Help:    "Latency of requests to the HR/CRM backend",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
	}, []string{"endpoint"})

	// Reference list fetchers
	FetchAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldagent_fetch_attempts_total",
		Help: "Reference list fetch attempts by resource and result",
	}, []string{"resource", "result"})

	FetchFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldagent_fetch_fallbacks_total",
		Help: "Reference list loads served from a fallback source",
	}, []string{"resource", "source"})

	// Reconciliation
	ReconciledRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldagent_reconciled_records",
		Help: "Size of the last reconciled collection list",
	})

	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldagent_collection_submissions_total",
		Help: "Collection submissions by result",
	}, []string{"result"})
)
