package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"supplymarket_api/metrics"
)

// PrometheusMiddleware records method, route, status class and duration of every request.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// route template keeps label cardinality bounded
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
