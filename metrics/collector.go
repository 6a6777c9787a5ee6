// Package metrics exposes the studio's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap/zapcore"

	"github.com/leeforge/giftstudio/cache"
)

const namespace = "studio"

// Collector 指标收集器
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	gestures        *prometheus.CounterVec
	composeDuration prometheus.Histogram

	catalogRequests *prometheus.CounterVec
	catalogDuration *prometheus.HistogramVec
	tokenRefreshes  *prometheus.CounterVec

	logEntries *prometheus.CounterVec
}

// NewCollector 创建指标收集器，使用独立的 registry
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		},
		[]string{"method", "route", "status"},
	)
	c.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	c.gestures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "operations_total",
			Help:      "Editor operations by kind and result.",
		},
		[]string{"op", "result"},
	)
	c.composeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "compose_duration_seconds",
			Help:      "Time to flatten base and overlay into the output bitmap.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	c.catalogRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Requests to the catalog service by method and status class.",
		},
		[]string{"method", "class"},
	)
	c.catalogDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "request_duration_seconds",
			Help:      "Catalog service request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	c.tokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "token_refresh_total",
			Help:      "Access token refresh attempts by result.",
		},
		[]string{"result"},
	)

	c.logEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_entries_total",
			Help:      "Log entries written, by level.",
		},
		[]string{"level"},
	)

	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.gestures,
		c.composeDuration,
		c.catalogRequests,
		c.catalogDuration,
		c.tokenRefreshes,
		c.logEntries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RegisterSessionGauge exposes the number of live editor sessions.
func (c *Collector) RegisterSessionGauge(count func() int) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "sessions",
			Help:      "Editor sessions currently held in memory.",
		},
		func() float64 { return float64(count()) },
	))
}

// RegisterCacheStats exposes hit, miss and size figures of a named cache.
func (c *Collector) RegisterCacheStats(name string, stats func() cache.Stats) {
	labels := prometheus.Labels{"cache": name}
	c.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "hits_total",
			Help:        "Cache lookups answered from memory.",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "misses_total",
			Help:        "Cache lookups that had to load.",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "entries",
			Help:        "Entries currently cached.",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Size) }),
	)
}

// RecordOperation counts one editor operation; result is "ok" or the error
// type.
func (c *Collector) RecordOperation(op string, result string) {
	c.gestures.WithLabelValues(op, result).Inc()
}

func (c *Collector) ObserveCompose(d time.Duration) {
	c.composeDuration.Observe(d.Seconds())
}

// ObserveRequest implements catalog.Observer.
func (c *Collector) ObserveRequest(method string, status int, took time.Duration) {
	c.catalogRequests.WithLabelValues(method, statusClass(status)).Inc()
	c.catalogDuration.WithLabelValues(method).Observe(took.Seconds())
}

// ObserveRefresh implements catalog.Observer.
func (c *Collector) ObserveRefresh(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	c.tokenRefreshes.WithLabelValues(result).Inc()
}

// LogHook counts log entries. Pass it to logging.NewLogger.
func (c *Collector) LogHook(entry zapcore.Entry) error {
	c.logEntries.WithLabelValues(entry.Level.String()).Inc()
	return nil
}

// Middleware records request counts and latency keyed by chi route pattern,
// so that path parameters do not explode label cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
