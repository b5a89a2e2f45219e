package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"ccip-relay.backend/pkg/logger"
	"ccip-relay.backend/pkg/metrics"
)

// LoggerMiddleware logs HTTP requests using the structured logger and records
// them on recorder, which may be nil.
func LoggerMiddleware(recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), latency, c.ClientIP())

		// route template keeps label cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), latency)
	}
}
