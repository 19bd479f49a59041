package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts analytics requests.
	// Labels: view (defects, wash-recipes, comparison, reload), status (HTTP status code)
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qa_analytics",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total analytics requests by view and outcome",
	}, []string{"view", "status"})

	// requestLatency measures how long a view takes to compute.
	// Labels: view
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "qa_analytics",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Analytics view latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"view"})
)
