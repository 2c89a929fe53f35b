package middlewares

import (
	"strconv"
	"time"

	"inventory-service/metrics"

	"github.com/gin-gonic/gin"
)

// PrometheusMiddleware records request count and latency per route template.
// Unmatched paths share one label so scanners cannot blow up cardinality.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}
