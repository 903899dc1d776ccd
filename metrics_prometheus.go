package ratecap

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus collectors held in
// a custom registry. Using a custom registry (instead of the global
// prometheus.DefaultRegisterer) keeps metrics isolated per instance and
// avoids registration conflicts in tests and multi-limiter deployments.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// requestsTotal counts rate limit decisions.
	// Labels:
	//   - limiter: the limiter's configured name
	//   - status: "allowed", "limited", or "store_error"
	requestsTotal *prometheus.CounterVec

	// checkDuration tracks the duration of store increments.
	// Buckets cover sub-millisecond in-memory checks through network
	// round-trips slow enough to trip a circuit breaker.
	checkDuration *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a PrometheusRecorder with its own registry.
// Expose the metrics by passing Registry() to promhttp.HandlerFor.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratecap",
			Name:      "requests_total",
			Help:      "Total rate limit decisions by limiter and status",
		},
		[]string{"limiter", "status"},
	)

	checkDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ratecap",
			Name:      "check_duration_seconds",
			Help:      "Duration of rate limit store operations",
			Buckets:   []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"limiter"},
	)

	registry.MustRegister(requestsTotal, checkDuration)

	return &PrometheusRecorder{
		registry:      registry,
		requestsTotal: requestsTotal,
		checkDuration: checkDuration,
	}
}

// Registry returns the registry containing all rate limit metrics:
//
//	recorder := ratecap.NewPrometheusRecorder()
//	http.Handle("/metrics", promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{}))
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// RecordAllowed counts a request that stayed within the limit.
func (p *PrometheusRecorder) RecordAllowed(limiter string) {
	p.requestsTotal.WithLabelValues(limiter, "allowed").Inc()
}

// RecordLimited counts a request rejected for exceeding the limit.
func (p *PrometheusRecorder) RecordLimited(limiter string) {
	p.requestsTotal.WithLabelValues(limiter, "limited").Inc()
}

// RecordStoreError counts a request whose store operation failed.
func (p *PrometheusRecorder) RecordStoreError(limiter string) {
	p.requestsTotal.WithLabelValues(limiter, "store_error").Inc()
}

// RecordCheckDuration observes how long the store increment took.
func (p *PrometheusRecorder) RecordCheckDuration(limiter string, duration time.Duration) {
	p.checkDuration.WithLabelValues(limiter).Observe(duration.Seconds())
}
