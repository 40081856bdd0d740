package middleware

import (
	"net/http"

	"guestgate/internal/domain/admin"
	"guestgate/internal/handler/httperr"
	"guestgate/internal/pkg/cookie"
	"guestgate/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxAccountIDKey = "account_id"
	ctxUsernameKey  = "username"
	ctxRoleKey      = "role"
)

type AuthMiddleware struct {
	jwtSvc *jwt.Service
}

func NewAuthMiddleware(jwtSvc *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc}
}

// RequireAuth validates the admin session cookie and loads the caller's
// identity into the context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookie.GetAdminSessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httperr.Response{
				Error:         "Authentication required",
				Code:          httperr.CodeUnauthorized,
				CorrelationID: GetCorrelationID(c),
			})
			return
		}

		claims, err := m.jwtSvc.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httperr.Response{
				Error:         "Invalid or expired session",
				Code:          httperr.CodeUnauthorized,
				CorrelationID: GetCorrelationID(c),
			})
			return
		}

		role, ok := admin.ParseRole(claims.Role)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httperr.Response{
				Error:         "Invalid or expired session",
				Code:          httperr.CodeUnauthorized,
				CorrelationID: GetCorrelationID(c),
			})
			return
		}

		c.Set(ctxAccountIDKey, claims.AccountID)
		c.Set(ctxUsernameKey, claims.Username)
		c.Set(ctxRoleKey, role)
		c.Next()
	}
}

func GetAccountID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxAccountIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func GetUsername(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUsernameKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func GetRole(c *gin.Context) (admin.Role, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	r, ok := v.(admin.Role)
	return r, ok
}
