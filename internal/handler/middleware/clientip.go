package middleware

import (
	"guestgate/internal/pkg/netutil"

	"github.com/gin-gonic/gin"
)

const ctxClientIPKey = "derived_client_ip"

// ClientIP derives the apparent client address once per request. Forwarding
// headers are believed only when the direct peer sits in a trusted proxy
// network.
func ClientIP(trusted *netutil.TrustedProxies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := netutil.ClientIP(
			c.Request.RemoteAddr,
			c.GetHeader("X-Forwarded-For"),
			c.GetHeader("X-Real-IP"),
			trusted,
		)
		c.Set(ctxClientIPKey, ip)
		c.Next()
	}
}

func GetClientIP(c *gin.Context) string {
	if ip, ok := c.Get(ctxClientIPKey); ok {
		if s, ok := ip.(string); ok {
			return s
		}
	}
	return c.ClientIP()
}
