// Package metrics exposes the prometheus instrumentation shared by the HTTP
// server and the scheduler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	SchedulerJobRuns   *prometheus.CounterVec
	SchedulerJobErrors *prometheus.CounterVec
	TenantsSwept       *prometheus.CounterVec

	PaymentEvents *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lubetrack_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lubetrack_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		SchedulerJobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lubetrack_scheduler_job_runs_total",
			Help: "Scheduler job executions by job name.",
		}, []string{"job"}),
		SchedulerJobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lubetrack_scheduler_job_errors_total",
			Help: "Scheduler job failures by job name.",
		}, []string{"job"}),
		TenantsSwept: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lubetrack_scheduler_tenants_swept_total",
			Help: "Tenants transitioned by scheduler sweeps, by job name.",
		}, []string{"job"}),
		PaymentEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lubetrack_payment_events_total",
			Help: "Gateway webhook events by provider and type.",
		}, []string{"provider", "type"}),
	}
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
