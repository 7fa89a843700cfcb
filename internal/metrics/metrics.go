// Package metrics exports ledger and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects operation outcomes. It satisfies ledger.Recorder.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	units      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	requests   *prometheus.CounterVec
}

// New creates a recorder with its own registry, including Go runtime and
// process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vcledger",
			Name:      "operations_total",
			Help:      "Ledger operations by result code.",
		}, []string{"operation", "result"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vcledger",
			Name:      "units_total",
			Help:      "Virtual codes moved by successful ledger operations.",
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vcledger",
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vcledger",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
	}
	r.registry.MustRegister(
		r.operations, r.units, r.duration, r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one ledger operation. Units only count on success.
func (r *Recorder) Observe(operation, result string, units int, elapsed time.Duration) {
	r.operations.WithLabelValues(operation, result).Inc()
	r.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if result == "ok" && units > 0 {
		r.units.WithLabelValues(operation).Add(float64(units))
	}
}

// ObserveRequest records one served HTTP request.
func (r *Recorder) ObserveRequest(method string, status int) {
	r.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
