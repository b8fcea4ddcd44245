// Package metrics exposes Prometheus collectors for imports and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "expense_importer"

// Metrics groups every collector on a private registry. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	filesProcessed *prometheus.CounterVec
	rowsParsed     *prometheus.CounterVec
	parseDuration  *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	retentionPurge prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Statement files processed, by file type, bank format and outcome.",
		}, []string{"file_type", "bank_format", "outcome"}),
		rowsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Data rows parsed, by bank format and result.",
		}, []string{"bank_format", "result"}),
		parseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing one statement file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"file_type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		retentionPurge: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archived_uploads_purged_total",
			Help:      "Archived uploads removed by the retention job.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.filesProcessed,
		m.rowsParsed,
		m.parseDuration,
		m.httpRequests,
		m.retentionPurge,
	)
	return m
}

// ObserveFile records the outcome of one processed file.
func (m *Metrics) ObserveFile(fileType, bankFormat, outcome string, valid, invalid int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.filesProcessed.WithLabelValues(fileType, bankFormat, outcome).Inc()
	m.parseDuration.WithLabelValues(fileType).Observe(elapsed.Seconds())
	if valid > 0 {
		m.rowsParsed.WithLabelValues(bankFormat, "valid").Add(float64(valid))
	}
	if invalid > 0 {
		m.rowsParsed.WithLabelValues(bankFormat, "invalid").Add(float64(invalid))
	}
}

func (m *Metrics) ObserveRequest(route, method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObservePurge(removed int) {
	if m == nil {
		return
	}
	m.retentionPurge.Add(float64(removed))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
