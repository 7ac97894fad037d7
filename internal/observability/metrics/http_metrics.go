package metrics

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	ReasonDeadlineExceeded     = "deadline_exceeded"
	ReasonDBLockTimeout        = "db_lock_timeout"
	ReasonSerializationFailure = "serialization_failure"
	ReasonUniqueViolation      = "unique_violation"
	ReasonNotFound             = "not_found"
	ReasonUnknown              = "unknown"
)

// HTTPMetrics captures request and export health for the Prometheus scrape endpoint.
type HTTPMetrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	exportFailures *prometheus.CounterVec
	exportBytes    *prometheus.HistogramVec
}

var (
	httpMetricsOnce sync.Once
	httpMetrics     *HTTPMetrics
)

// NewHTTPMetrics returns the singleton HTTP metrics registry using config labels.
func NewHTTPMetrics(cfg Config) *HTTPMetrics {
	httpMetricsOnce.Do(func() {
		httpMetrics = newHTTPMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return httpMetrics
}

// ResetHTTPMetricsForTest resets the HTTP metrics singleton for tests.
func ResetHTTPMetricsForTest() {
	httpMetricsOnce = sync.Once{}
	httpMetrics = nil
}

func newHTTPMetrics(registerer prometheus.Registerer, cfg Config) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "tradebook"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "tradebook_http_requests_total",
		Help:        "HTTP requests by route and status code.",
		ConstLabels: constLabels,
	}, []string{"method", "route", "status_code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "tradebook_http_request_duration_seconds",
		Help:        "HTTP request latency by route.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	}, []string{"method", "route"})
	exportFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "tradebook_document_export_failures_total",
		Help:        "Document exports that failed by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"document_kind", "reason"})
	exportBytes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "tradebook_document_export_bytes",
		Help:        "Size of exported documents.",
		Buckets:     prometheus.ExponentialBuckets(4096, 2, 10),
		ConstLabels: constLabels,
	}, []string{"document_kind"})

	registerer.MustRegister(requests, duration, exportFailures, exportBytes)

	return &HTTPMetrics{
		requests:       requests,
		duration:       duration,
		exportFailures: exportFailures,
		exportBytes:    exportBytes,
	}
}

// GinMiddleware records request counts and latency per route.
func (m *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordExport observes the size of a produced document.
func (m *HTTPMetrics) RecordExport(kind string, size int) {
	if m == nil {
		return
	}
	m.exportBytes.WithLabelValues(strings.TrimSpace(kind)).Observe(float64(size))
}

// RecordExportFailure counts a failed export classified by cause.
func (m *HTTPMetrics) RecordExportFailure(kind string, err error) {
	if m == nil {
		return
	}
	m.exportFailures.WithLabelValues(strings.TrimSpace(kind), ClassifyReason(err)).Inc()
}

// ClassifyReason maps store and context errors to low-cardinality reasons.
func ClassifyReason(err error) string {
	if err == nil {
		return ReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ReasonNotFound
	}
	if hasPGCode(err, "55P03") {
		return ReasonDBLockTimeout
	}
	if hasPGCode(err, "40001") {
		return ReasonSerializationFailure
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") {
		return ReasonUniqueViolation
	}
	return ReasonUnknown
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
