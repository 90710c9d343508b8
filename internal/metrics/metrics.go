// Package metrics exports Prometheus metrics for the HTTP API, the session
// lifecycle and the store average recomputes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the API exports.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// auth
	AuthEventsTotal *prometheus.CounterVec

	// ratings
	AverageRecomputesTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		AuthEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_total",
				Help:      "Session operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		AverageRecomputesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_average_recomputes_total",
				Help:      "Cached store average recomputes by result",
			},
			[]string{"result"},
		),
		registry: reg,
	}
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count, latency and in-flight requests.  The
// path label is the route pattern so ids do not explode cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// AuthEvent counts one session operation outcome.
func (m *Metrics) AuthEvent(op, outcome string) {
	m.AuthEventsTotal.WithLabelValues(op, outcome).Inc()
}

// AverageRecomputed counts one average recompute.
func (m *Metrics) AverageRecomputed(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.AverageRecomputesTotal.WithLabelValues(result).Inc()
}
