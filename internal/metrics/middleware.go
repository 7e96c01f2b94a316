package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that no chi route handled (404s, probes for random paths).
const unmatchedRoute = "unmatched"

// httpCollectors are the REST API series. The path label is the chi route
// pattern, so query strings and ids never reach label values.
type httpCollectors struct {
	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var httpMetrics = newHTTPCollectors()

func newHTTPCollectors() *httpCollectors {
	labels := []string{"method", "path", "status"}
	return &httpCollectors{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "REST requests currently being served.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "REST requests by route and status.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "REST request latency by route and status.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, labels),
	}
}

// Registered at import: the REST server is the only caller and may be built more than once in tests.
func init() {
	prometheus.MustRegister(httpMetrics.inFlight, httpMetrics.requests, httpMetrics.duration)
}

// Middleware records latency, count and in-flight requests for the chi router.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpMetrics.inFlight.Inc()
			defer httpMetrics.inFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			lv := []string{r.Method, routeLabel(r), strconv.Itoa(status)}
			httpMetrics.requests.WithLabelValues(lv...).Inc()
			httpMetrics.duration.WithLabelValues(lv...).Observe(time.Since(start).Seconds())
		})
	}
}

// routeLabel is read after the handler ran, when chi has resolved the full pattern.
func routeLabel(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil || rc.RoutePattern() == "" {
		return unmatchedRoute
	}
	return rc.RoutePattern()
}
