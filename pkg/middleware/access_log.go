package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vibe-transcode-service/pkg/logger"
	"vibe-transcode-service/pkg/metrics"
)

// AccessLogMiddleware logs one line per request through the service logger
// and records request metrics. Static asset hits are logged at debug level.
func AccessLogMiddleware(staticPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(elapsed.Seconds())

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
			"request_id": c.GetString("request_id"),
			"client_ip":  c.ClientIP(),
		}
		if staticPrefix != "" && strings.HasPrefix(c.Request.URL.Path, staticPrefix) {
			logger.Debug("static asset served", fields)
			return
		}
		logger.Info("request handled", fields)
	}
}
