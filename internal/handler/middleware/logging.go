package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		logAttrs := []any{
			"correlation_id", GetCorrelationID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", GetClientIP(c),
		}

		c.Next()

		duration := time.Since(startTime)
		statusCode := c.Writer.Status()

		responseAttrs := append(logAttrs,
			"status_code", statusCode,
			"duration", duration,
		)

		for _, ginErr := range c.Errors {
			responseAttrs = append(responseAttrs, "error", ginErr.Err.Error())
		}

		switch {
		case statusCode >= 500:
			logger.Error("request completed", responseAttrs...)
		case statusCode >= 400:
			logger.Warn("request completed", responseAttrs...)
		default:
			logger.Info("request completed", responseAttrs...)
		}
	}
}
