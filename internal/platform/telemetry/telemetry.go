// Package telemetry exposes Prometheus metrics for the copilot server:
// HTTP traffic, which engine produced each reasoning answer, why the
// generative backend was skipped, and the size of the knowledge index.
package telemetry

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "copilot"

var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Metrics owns its registry so tests and multiple servers in one process
// never collide on the global default registerer.
type Metrics struct {
	registry *prometheus.Registry

	requests           *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	engine             *prometheus.CounterVec
	generativeFailures *prometheus.CounterVec
	indexedChunks      prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   defaultDurationBuckets,
			},
			[]string{"method", "route"},
		),
		engine: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reasoning_engine_total",
				Help:      "Reasoning answers by the engine that produced them",
			},
			[]string{"engine"},
		),
		generativeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generative_failures_total",
				Help:      "Generative backend results that fell back to rules, by kind",
			},
			[]string{"reason"},
		),
		indexedChunks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "knowledge_indexed_chunks",
				Help:      "Number of chunks currently in the knowledge index",
			},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.engine,
		m.generativeFailures,
		m.indexedChunks,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry is exposed for tests that gather metric families directly.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveEngine(engine string) {
	m.engine.WithLabelValues(engine).Inc()
}

func (m *Metrics) ObserveGenerativeFailure(reason string) {
	m.generativeFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetIndexedChunks(n int) {
	m.indexedChunks.Set(float64(n))
}

// Middleware records request counts and latency per route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			method := c.Request().Method

			m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			m.requests.WithLabelValues(method, route, strconv.Itoa(statusOf(c, err))).Inc()
			return err
		}
	}
}

// statusOf resolves the final status before echo's error handler has written
// the response.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
