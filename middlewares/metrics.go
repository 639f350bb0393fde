package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricPrefix = "procurement"

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: metricPrefix + "_tenant_context_missing_total",
			Help: "Total number of requests without tenant context",
		},
	)

	// outcome is ok, validation, not_found, conflict or error
	DocumentOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "_document_operations_total",
			Help: "Total number of document operations by outcome",
		},
		[]string{"document", "operation", "outcome"},
	)
)

// MetricsMiddleware records request counts and durations by route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HttpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HttpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func RecordDocumentOperation(document string, operation string, outcome string) {
	DocumentOperationsCounter.WithLabelValues(document, operation, outcome).Inc()
}
