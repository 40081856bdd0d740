package api

import (
	"fmt"
	"html"
	"net/http"

	"guestgate/internal/handler/httperr"
	"guestgate/internal/handler/middleware"
	"guestgate/internal/pkg/config"
	"guestgate/internal/pkg/cookie"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/pkg/netutil"
	"guestgate/internal/pkg/redirect"
	"guestgate/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Headers captive-portal controllers use to convey the client MAC, in
// preference order.
var macHeaders = []string{"X-MAC-Address", "X-Client-Mac", "Client-MAC"}

type GuestHandler struct {
	guestAuth    usecase.GuestAuthUseCase
	portalConfig usecase.PortalConfigUseCase
	audit        usecase.AuditUseCase
	validator    *redirect.Validator
	security     config.SecurityConfig
	serveTLS     bool
}

func NewGuestHandler(
	guestAuth usecase.GuestAuthUseCase,
	portalConfig usecase.PortalConfigUseCase,
	audit usecase.AuditUseCase,
	validator *redirect.Validator,
	cfg config.Config,
) *GuestHandler {
	return &GuestHandler{
		guestAuth:    guestAuth,
		portalConfig: portalConfig,
		audit:        audit,
		validator:    validator,
		security:     cfg.Security,
		serveTLS:     cfg.Server.TLS,
	}
}

// ShowForm renders the authorization form and issues the CSRF cookie. The
// themed template ships separately; this body is the fallback markup.
func (h *GuestHandler) ShowForm(c *gin.Context) {
	token, err := middleware.NewCSRFToken(h.security.CSRFTokenBytes)
	if err != nil {
		httperr.Abort(c, err, middleware.GetCorrelationID(c))
		return
	}
	cookie.SetGuestCSRFCookie(c, token, h.serveTLS)

	continueURL := c.Query("continue")
	body := fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>Wi-Fi Access</title></head>
<body>
<form method="post" action="/guest/authorize">
<label for="code">Voucher or booking code</label>
<input id="code" name="code" autocomplete="off" autofocus>
<input type="hidden" name="csrf_token" value="%s">
<input type="hidden" name="continue" value="%s">
<button type="submit">Connect</button>
</form>
</body></html>`, html.EscapeString(token), html.EscapeString(continueURL))

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
}

// Authorize is the guest POST pipeline: the client IP, rate limit, and CSRF
// gates have already run as middleware; here the code is parsed, the MAC
// captured, the grant created, and the redirect validated.
func (h *GuestHandler) Authorize(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	code := c.PostForm("code")
	if code == "" {
		httperr.Abort(c, errs.Mark(errs.New("code is required"), errs.ErrInvalidInput), correlationID)
		return
	}

	mac, sessionToken, err := h.captureMAC(c)
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}

	input := usecase.GuestAuthInput{
		Code:         code,
		MAC:          mac,
		SessionToken: sessionToken,
		ClientIP:     middleware.GetClientIP(c),
	}

	grantRM, err := h.guestAuth.Authorize(c.Request.Context(), input, correlationID)
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}

	destination := h.resolveRedirect(c, correlationID)

	cookie.SetGrantIDCookie(c, grantRM.ID.String(), h.serveTLS)
	c.Redirect(http.StatusSeeOther, destination)
}

// Welcome is the default post-authorization landing page.
func (h *GuestHandler) Welcome(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8",
		[]byte(`<!DOCTYPE html><html><head><title>Connected</title></head><body><h1>You're connected</h1></body></html>`))
}

func (h *GuestHandler) captureMAC(c *gin.Context) (string, *string, error) {
	for _, header := range macHeaders {
		raw := c.GetHeader(header)
		if raw == "" {
			continue
		}
		mac, err := netutil.NormalizeMAC(raw)
		if err != nil {
			return "", nil, errs.Mark(err, errs.ErrInvalidFormat)
		}
		return mac, nil, nil
	}

	// No MAC header: fall back to a session token. The sweeper revokes the
	// grant if the MAC is not reconciled within the deadline.
	token := uuid.NewString()
	return "", &token, nil
}

func (h *GuestHandler) resolveRedirect(c *gin.Context, correlationID string) string {
	fallback := h.successRedirect(c)

	continueURL := c.PostForm("continue")
	if continueURL == "" {
		return fallback
	}
	if h.validator.IsSafe(continueURL) {
		return continueURL
	}

	h.audit.Record(c.Request.Context(), usecase.AuditEntry{
		Actor:         "guest:" + middleware.GetClientIP(c),
		RoleSnapshot:  "guest",
		Action:        "guest.redirect.rejected",
		TargetType:    "redirect",
		TargetID:      continueURL,
		Outcome:       usecase.OutcomeDenied,
		CorrelationID: correlationID,
	})
	return fallback
}

func (h *GuestHandler) successRedirect(c *gin.Context) string {
	cfg, err := h.portalConfig.Get(c.Request.Context())
	if err != nil {
		return "/guest/welcome"
	}
	return cfg.SuccessRedirectURL
}
