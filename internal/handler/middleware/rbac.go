package middleware

import (
	"net/http"

	"guestgate/internal/handler/httperr"
	"guestgate/internal/pkg/rbac"
	"guestgate/internal/usecase"

	"github.com/gin-gonic/gin"
)

// RequireAction enforces the static permission matrix: deny-by-default, with
// every denial audited. Must run after RequireAuth.
func RequireAction(action string, audit usecase.AuditUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httperr.Response{
				Error:         "Authentication required",
				Code:          httperr.CodeUnauthorized,
				CorrelationID: GetCorrelationID(c),
			})
			return
		}

		if !rbac.IsAllowed(role, action) {
			username, _ := GetUsername(c)
			audit.Record(c.Request.Context(), usecase.AuditEntry{
				Actor:         username,
				RoleSnapshot:  role.String(),
				Action:        action,
				TargetType:    "route",
				TargetID:      c.Request.URL.Path,
				Outcome:       usecase.OutcomeDenied,
				CorrelationID: GetCorrelationID(c),
			})
			c.AbortWithStatusJSON(http.StatusForbidden, httperr.Response{
				Error:         "Forbidden",
				Code:          httperr.CodeRBACForbidden,
				CorrelationID: GetCorrelationID(c),
			})
			return
		}
		c.Next()
	}
}

// ActorFromContext builds the audit actor for the authenticated admin.
func ActorFromContext(c *gin.Context) usecase.Actor {
	username, _ := GetUsername(c)
	role, _ := GetRole(c)
	return usecase.Actor{
		Name:          username,
		Role:          role.String(),
		CorrelationID: GetCorrelationID(c),
	}
}
