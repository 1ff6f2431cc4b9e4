package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds HTTP and session Prometheus metrics.
// Все методы допускают nil receiver.
type Metrics struct {
	registry          *prometheus.Registry
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	sessionRejections *prometheus.CounterVec
}

// NewMetrics creates and registers metrics in registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refkeeper_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "refkeeper_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		sessionRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refkeeper_session_rejections_total",
				Help: "Requests rejected by the session gate",
			},
			[]string{"gate", "reason"},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.sessionRejections,
	)

	return m
}

// Handler returns the /metrics handler
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) sessionRejected(gate, reason string) {
	if m == nil {
		return
	}
	m.sessionRejections.WithLabelValues(gate, reason).Inc()
}

// HTTPMetricsMiddleware instruments requests; route берется из шаблона gorilla/mux,
// чтобы значения query и неизвестные пути не раздували кардинальность
func HTTPMetricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newStatusWriter(w)

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
