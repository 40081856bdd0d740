package cookie

import (
	"net/http"
	"time"

	"guestgate/internal/pkg/config"

	"github.com/gin-gonic/gin"
)

const (
	AdminSessionCookieName = "admin_session"
	GuestCSRFCookieName    = "guest_csrftoken"
	AdminCSRFCookieName    = "admin_csrftoken"
	GrantIDCookieName      = "grant_id"
)

// SetAdminSessionCookie stores the signed session token. Always HttpOnly;
// Secure follows the serving scheme.
func SetAdminSessionCookie(c *gin.Context, cfg config.SecurityConfig, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminSessionCookieName, token, int(ttl.Seconds()), "/", cfg.CookieDomain, secure, true)
}

func ClearAdminSessionCookie(c *gin.Context, cfg config.SecurityConfig, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminSessionCookieName, "", -1, "/", cfg.CookieDomain, secure, true)
}

func GetAdminSessionToken(c *gin.Context) string {
	token, _ := c.Cookie(AdminSessionCookieName)
	return token
}

// SetGuestCSRFCookie issues the double-submit token for the guest form.
// Captive-portal clients frequently sit behind plain HTTP, so Secure is only
// set when the portal itself is served over TLS; HttpOnly and Lax are
// unconditional.
func SetGuestCSRFCookie(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(GuestCSRFCookieName, token, 3600, "/", "", secure, true)
}

func GetGuestCSRFToken(c *gin.Context) string {
	token, _ := c.Cookie(GuestCSRFCookieName)
	return token
}

func SetAdminCSRFCookie(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	// Readable by the admin UI for header echo (double-submit), so not HttpOnly.
	c.SetCookie(AdminCSRFCookieName, token, 3600, "/", "", secure, false)
}

func GetAdminCSRFToken(c *gin.Context) string {
	token, _ := c.Cookie(AdminCSRFCookieName)
	return token
}

func SetGrantIDCookie(c *gin.Context, grantID string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(GrantIDCookieName, grantID, 3600, "/", "", secure, true)
}
