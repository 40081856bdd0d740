package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"
	ctxCorrelationIDKey = "correlation_id"
)

// CorrelationID propagates the caller's correlation id, minting one when the
// header is absent. Every audit entry and log line of the request carries it.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxCorrelationIDKey, id)
		c.Writer.Header().Set(CorrelationIDHeader, id)
		c.Next()
	}
}

func GetCorrelationID(c *gin.Context) string {
	if id, ok := c.Get(ctxCorrelationIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
