package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"guestgate/internal/handler/httperr"
	"guestgate/internal/pkg/cookie"

	"github.com/gin-gonic/gin"
)

// NewCSRFToken mints a random token for the double-submit pattern.
func NewCSRFToken(tokenBytes int) (string, error) {
	if tokenBytes <= 0 {
		tokenBytes = 32
	}
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func tokensMatch(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// GuestCSRF validates the guest form's double-submit token: the cookie set on
// GET must equal the posted csrf_token field.
func GuestCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieToken := cookie.GetGuestCSRFToken(c)
		formToken := c.PostForm("csrf_token")

		if !tokensMatch(cookieToken, formToken) {
			c.AbortWithStatusJSON(http.StatusForbidden, httperr.Response{
				Error:         "Invalid or missing CSRF token",
				Code:          httperr.CodeInvalidInput,
				CorrelationID: GetCorrelationID(c),
			})
			return
		}
		c.Next()
	}
}

// AdminCSRF validates the admin double-submit token: cookie vs the
// X-CSRF-Token header.
func AdminCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		cookieToken := cookie.GetAdminCSRFToken(c)
		headerToken := c.GetHeader("X-CSRF-Token")

		if !tokensMatch(cookieToken, headerToken) {
			c.AbortWithStatusJSON(http.StatusForbidden, httperr.Response{
				Error:         "Invalid or missing CSRF token",
				Code:          httperr.CodeInvalidInput,
				CorrelationID: GetCorrelationID(c),
			})
			return
		}
		c.Next()
	}
}
