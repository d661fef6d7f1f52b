// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classroll/internal/model"
)

// Collector holds the service's counters and histograms.
type Collector struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	marks    *prometheus.CounterVec
	emails   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroll_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classroll_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroll_attendance_marks_total",
			Help: "Attendance marks written, by status.",
		}, []string{"status"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroll_emails_sent_total",
			Help: "Outbound email jobs by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(c.requests, c.latency, c.marks, c.emails)
	return c
}

// ObserveHTTP records one served request. route is the matched pattern,
// not the raw path.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordMark counts a successful attendance write.
func (c *Collector) RecordMark(status model.Status) {
	c.marks.WithLabelValues(string(status)).Inc()
}

// RecordEmail counts an email job outcome.
func (c *Collector) RecordEmail(result string) {
	c.emails.WithLabelValues(result).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
