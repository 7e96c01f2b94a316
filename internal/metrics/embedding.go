package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vpsearch"

// Space rejection sources.
const (
	SourceProvider = "provider" // provider returned a vector outside the index space
	SourceRecord   = "record"   // ingested record carried a foreign vector
	SourceQuery    = "query"    // raw vector search with the wrong dimensions
)

var providerLabels = []string{"provider", "model"}

// Embedding metrics. Every provider series carries the model so that documents
// and queries embedded by different models show up side by side.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "requests_total",
		Help:      "Embedding provider calls by outcome (ok, error).",
	}, append(providerLabels, "status"))

	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "request_duration_seconds",
		Help:      "Successful embedding provider call latency.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, providerLabels)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "errors_total",
		Help:      "Failed embedding provider calls by reason.",
	}, append(providerLabels, "error_type"))

	EmbeddingTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "tokens_total",
		Help:      "Tokens billed by the provider (prompt, total).",
	}, append(providerLabels, "type"))

	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "cache_total",
		Help:      "Role embedding cache lookups (hit, miss).",
	}, []string{"result"})

	EmbeddingSpaceRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "space_rejected_total",
		Help:      "Vectors rejected for a model or dimension outside the index embedding space.",
	}, []string{"source"})
)

// ObserveEmbedding records one provider call. An empty reason means success;
// otherwise reason becomes the error_type label (api_error, empty_response).
func ObserveEmbedding(provider, model string, took time.Duration, reason string) {
	if reason != "" {
		EmbeddingRequestsTotal.WithLabelValues(provider, model, "error").Inc()
		EmbeddingErrorsTotal.WithLabelValues(provider, model, reason).Inc()
		return
	}
	EmbeddingRequestsTotal.WithLabelValues(provider, model, "ok").Inc()
	EmbeddingRequestDuration.WithLabelValues(provider, model).Observe(took.Seconds())
}

// AddEmbeddingTokens records provider-reported usage. Providers without usage report zero.
func AddEmbeddingTokens(provider, model string, prompt, total int) {
	if total <= 0 {
		return
	}
	EmbeddingTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(prompt))
	EmbeddingTokensTotal.WithLabelValues(provider, model, "total").Add(float64(total))
}

// SpaceRejected counts a vector dropped by the embedding space check.
func SpaceRejected(source string) {
	EmbeddingSpaceRejectedTotal.WithLabelValues(source).Inc()
}

var embOnce sync.Once

// RegisterEmbeddingMetrics registers embedding metrics. Safe to call more than once.
func RegisterEmbeddingMetrics() {
	mustRegisterOnce(&embOnce,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingErrorsTotal,
		EmbeddingTokensTotal,
		EmbeddingCacheTotal,
		EmbeddingSpaceRejectedTotal,
	)
}

func mustRegisterOnce(once *sync.Once, cs ...prometheus.Collector) {
	once.Do(func() { prometheus.MustRegister(cs...) })
}
