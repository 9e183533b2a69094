package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	jobs     *prometheus.CounterVec
	emails   *prometheus.CounterVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hrops_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hrops_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hrops_job_runs_total",
			Help: "Background job executions by type and outcome.",
		}, []string{"job", "outcome"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hrops_outbound_emails_total",
			Help: "Outbound email jobs by template and outcome.",
		}, []string{"template", "outcome"}),
	}
	registry.MustRegister(c.requests, c.duration, c.jobs, c.emails)
	registry.MustRegister(prometheus.NewGoCollector())
	return c
}

func (c *Collector) RecordRequest(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	c.requests.WithLabelValues(method, route, code).Inc()
	c.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) RecordJob(job string, err error) {
	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	c.jobs.WithLabelValues(job, outcome).Inc()
}

func (c *Collector) RecordEmail(template string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	c.emails.WithLabelValues(template, outcome).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
