package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the collectors of one process on a private prometheus
// registry.
type Registry struct {
	registry *prometheus.Registry

	ledgerOperations *prometheus.CounterVec
	ledgerRetries    *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	relayPublished   *prometheus.CounterVec
}

func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)
	return &Registry{
		registry: registry,
		ledgerOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stackit_ledger_operations_total",
			Help: "Vote ledger operations by outcome.",
		}, []string{"operation", "outcome"}),
		ledgerRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stackit_ledger_retries_total",
			Help: "Optimistic write conflicts retried by the vote ledger.",
		}, []string{"operation"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stackit_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stackit_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		relayPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stackit_outbox_relay_cycles_total",
			Help: "Outbox relay cycles by module and outcome.",
		}, []string{"module", "outcome"}),
	}
}

func (r *Registry) ObserveLedgerOperation(operation string, outcome string) {
	r.ledgerOperations.WithLabelValues(operation, outcome).Inc()
}

func (r *Registry) ObserveLedgerRetry(operation string) {
	r.ledgerRetries.WithLabelValues(operation).Inc()
}

func (r *Registry) ObserveRelayCycle(module string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.relayPublished.WithLabelValues(module, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Instrument records request counts and latency. Routes are labelled by the
// matched ServeMux pattern to keep label cardinality bounded.
func (r *Registry) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, req)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		r.httpRequests.WithLabelValues(req.Method, route, strconv.Itoa(recorder.status)).Inc()
		r.httpLatency.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}
