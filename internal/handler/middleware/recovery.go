package middleware

import (
	"log/slog"
	"net/http"

	"guestgate/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

// CustomRecovery converts panics into the standard envelope without leaking
// internals.
func CustomRecovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			"panic", recovered,
			"path", c.Request.URL.Path,
			"correlation_id", GetCorrelationID(c))
		c.AbortWithStatusJSON(http.StatusInternalServerError, httperr.Response{
			Error:         "Internal server error",
			Code:          httperr.CodeInternalError,
			CorrelationID: GetCorrelationID(c),
		})
	})
}
