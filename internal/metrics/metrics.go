// Package metrics exposes the Prometheus collectors of the API and worker.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Previo collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	UploadsTotal     *prometheus.CounterVec
	UploadRejections *prometheus.CounterVec
	ReportsRendered  *prometheus.CounterVec
	Notices          *prometheus.CounterVec
	PrevioCompleted  prometheus.Counter
}

// New registers the collectors under the given namespace.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}
	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route"})
	m.UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_uploads_total",
		Help:      "Photo uploads by result",
	}, []string{"operation_type", "result"})
	m.UploadRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_upload_rejections_total",
		Help:      "Photos rejected before upload, by reason",
	}, []string{"reason"})
	m.ReportsRendered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_rendered_total",
		Help:      "PDF reports rendered, by output",
	}, []string{"output"})
	m.Notices = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_notices_total",
		Help:      "Validation notices shown to users, by step",
	}, []string{"step"})
	m.PrevioCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "previos_completed_total",
		Help:      "Previos marked completed",
	})

	registry.MustRegister(m.HTTPRequestsTotal, m.HTTPRequestDuration, m.UploadsTotal,
		m.UploadRejections, m.ReportsRendered, m.Notices, m.PrevioCompleted)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry, for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) RecordUpload(operationType string, success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.UploadsTotal.WithLabelValues(operationType, result).Inc()
}

func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.UploadRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordReport(output string) {
	if m == nil {
		return
	}
	m.ReportsRendered.WithLabelValues(output).Inc()
}

func (m *Metrics) RecordNotice(step string) {
	if m == nil {
		return
	}
	m.Notices.WithLabelValues(step).Inc()
}

func (m *Metrics) RecordCompleted() {
	if m == nil {
		return
	}
	m.PrevioCompleted.Inc()
}
