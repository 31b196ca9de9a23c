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

const namespace = "todo_api"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	todoOperations  *prometheus.CounterVec
	userSignups     prometheus.Counter
	logins          *prometheus.CounterVec
	tokenResolves   *prometheus.CounterVec
	tokenCacheCalls *prometheus.CounterVec
}

// NewPrometheus creates a recorder with its own registry, including the
// Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	r := &PrometheusRecorder{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		todoOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "todos",
			Name:      "operations_total",
			Help:      "Todo mutations by operation",
		}, []string{"operation"}),
		userSignups: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "signups_total",
			Help:      "Total user sign-ups",
		}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "logins_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		tokenResolves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_resolutions_total",
			Help:      "Token resolutions by result",
		}, []string{"result"}),
		tokenCacheCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_cache_lookups_total",
			Help:      "Token cache lookups by outcome",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRequest records a finished HTTP request.
func (r *PrometheusRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncTodoCreated increments the created counter.
func (r *PrometheusRecorder) IncTodoCreated() {
	r.todoOperations.WithLabelValues("create").Inc()
}

// IncTodoUpdated increments the updated counter.
func (r *PrometheusRecorder) IncTodoUpdated() {
	r.todoOperations.WithLabelValues("update").Inc()
}

// IncTodoDeleted increments the deleted counter.
func (r *PrometheusRecorder) IncTodoDeleted() {
	r.todoOperations.WithLabelValues("delete").Inc()
}

// IncUserSignup increments the sign-up counter.
func (r *PrometheusRecorder) IncUserSignup() {
	r.userSignups.Inc()
}

// IncLogin increments the login counter for result.
func (r *PrometheusRecorder) IncLogin(result string) {
	r.logins.WithLabelValues(result).Inc()
}

// IncTokenResolve increments the token resolution counter for result.
func (r *PrometheusRecorder) IncTokenResolve(result string) {
	r.tokenResolves.WithLabelValues(result).Inc()
}

// IncTokenCacheHit increments the cache hit counter.
func (r *PrometheusRecorder) IncTokenCacheHit() {
	r.tokenCacheCalls.WithLabelValues("hit").Inc()
}

// IncTokenCacheMiss increments the cache miss counter.
func (r *PrometheusRecorder) IncTokenCacheMiss() {
	r.tokenCacheCalls.WithLabelValues("miss").Inc()
}
