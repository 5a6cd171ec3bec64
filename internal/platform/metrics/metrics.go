// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics owns the Prometheus collectors exported on /metrics.

Collectors are registered on a private [prometheus.Registry] held by a
[Registry] value, so tests and multiple servers in one process never share
global state.

Exported series:

  - vidtube_http_requests_total{method,route,status}
  - vidtube_http_request_duration_seconds{method,route}
  - vidtube_session_operations_total{operation,outcome}
*/
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

const namespace = "vidtube"

// Registry groups every collector the API exports.
type Registry struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	sessionOps   *prometheus.CounterVec
}

// NewRegistry creates a registry with Go runtime and process collectors attached.
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Registry{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "The total number of HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "The HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sessionOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_operations_total",
			Help:      "The total number of register, login, refresh and logout attempts by outcome.",
		}, []string{"operation", "outcome"}),
	}
}

// ObserveHTTP records one finished request. route should be the matched
// route pattern, never the raw path, to keep label cardinality bounded.
func (registry *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	registry.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	registry.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveSession records the outcome of a session lifecycle operation.
func (registry *Registry) ObserveSession(operation, outcome string) {
	registry.sessionOps.WithLabelValues(operation, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (registry *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(registry.registry, promhttp.HandlerOpts{Registry: registry.registry})
}

// Gatherer exposes the underlying registry for tests.
func (registry *Registry) Gatherer() prometheus.Gatherer {
	return registry.registry
}
