package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and ingest Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of VP role searches by outcome",
		},
		[]string{"status"}, // ok / empty / failed / invalid
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Vector index query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	SearchFilteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_filter_mismatch_total",
			Help:      "Index hits dropped because they did not match the pre-filter",
		},
	)

	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_records_total",
			Help:      "Person records ingested by outcome",
		},
		[]string{"status"}, // ok / invalid / failed
	)
)

var searchOnce sync.Once

// RegisterSearchMetrics registers search and ingest metrics. Safe to call more than once.
func RegisterSearchMetrics() {
	mustRegisterOnce(&searchOnce,
		SearchRequestsTotal,
		SearchDuration,
		SearchResults,
		SearchFilteredTotal,
		IngestTotal,
	)
}
