package server

import (
	"time"

	"tutorhub/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestLoggingMiddleware logs every HTTP request with latency and client info.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		if raw != "" {
			path = path + "?" + raw
		}

		logger.Info("request completed",
			"method", method,
			"path", path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"ip", clientIP,
			"user_agent", c.Request.UserAgent(),
		)
	}
}
