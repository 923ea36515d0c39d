package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests with 429 once the shared token bucket is empty.
// A non-positive rps disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			log.WithFields(log.Fields{
				"path":   c.Request.URL.Path,
				"client": c.ClientIP(),
			}).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(entry *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		fields := log.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}
		if len(c.Errors) > 0 {
			entry.WithFields(fields).Warn(c.Errors.String())
			return
		}
		entry.WithFields(fields).Debug("request")
	}
}
