// Package metrics exposes Prometheus instrumentation for the web server
// and the sync worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "finbook"

// Collector owns a private registry so tests and multiple binaries never
// clash on the global one. A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	appended       *prometheus.CounterVec
	publishFailure *prometheus.CounterVec
	mirrorSync     *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"route"},
		),
		appended: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "records_appended_total",
				Help:      "Total number of records written to storage by kind",
			},
			[]string{"kind"},
		),
		publishFailure: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "publish_failures_total",
				Help:      "Total number of record events that could not be published",
			},
			[]string{"kind"},
		),
		mirrorSync: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "mirror_sync_total",
				Help:      "Total number of records mirrored to the spreadsheet by kind and status",
			},
			[]string{"kind", "status"},
		),
	}

	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.appended,
		c.publishFailure,
		c.mirrorSync,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (c *Collector) RecordAppended(kind string) {
	if c == nil {
		return
	}
	c.appended.WithLabelValues(kind).Inc()
}

func (c *Collector) PublishFailed(kind string) {
	if c == nil {
		return
	}
	c.publishFailure.WithLabelValues(kind).Inc()
}

// MirrorSynced counts a mirror attempt; status is "success" or "error".
func (c *Collector) MirrorSynced(kind string, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.mirrorSync.WithLabelValues(kind, status).Inc()
}
