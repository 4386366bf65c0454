package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Count of HTTP requests processed",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint", "status"},
	)
)

// Metrics records per-route request counts and latencies. Requests that match
// no route share a single endpoint label so cardinality stays bounded.
func Metrics(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "not_found"
		}
		status := strconv.Itoa(c.Writer.Status())

		requestsTotal.WithLabelValues(serviceName, c.Request.Method, endpoint, status).Inc()
		requestDuration.WithLabelValues(serviceName, c.Request.Method, endpoint, status).
			Observe(time.Since(start).Seconds())
	}
}
