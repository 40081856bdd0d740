package api

import (
	"net/http"
	"time"

	reqdto "guestgate/internal/handler/dto/request"
	resdto "guestgate/internal/handler/dto/response"
	"guestgate/internal/handler/httperr"
	"guestgate/internal/handler/middleware"
	"guestgate/internal/pkg/config"
	"guestgate/internal/pkg/cookie"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AdminAuthHandler struct {
	auth     usecase.AuthUseCase
	audit    usecase.AuditUseCase
	security config.SecurityConfig
	serveTLS bool
}

func NewAdminAuthHandler(auth usecase.AuthUseCase, audit usecase.AuditUseCase, cfg config.Config) *AdminAuthHandler {
	return &AdminAuthHandler{
		auth:     auth,
		audit:    audit,
		security: cfg.Security,
		serveTLS: cfg.Server.TLS,
	}
}

func (h *AdminAuthHandler) Login(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req reqdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password, correlationID)
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}

	sessionTTL := time.Duration(h.security.SessionIdleMinutes) * time.Minute
	cookie.SetAdminSessionCookie(c, h.security, result.Token, sessionTTL, h.serveTLS)

	csrfToken, err := middleware.NewCSRFToken(h.security.CSRFTokenBytes)
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}
	cookie.SetAdminCSRFCookie(c, csrfToken, h.serveTLS)

	c.JSON(http.StatusOK, resdto.NewAccountResponse(result.Account))
}

func (h *AdminAuthHandler) Logout(c *gin.Context) {
	cookie.ClearAdminSessionCookie(c, h.security, h.serveTLS)

	if username, ok := middleware.GetUsername(c); ok {
		role, _ := middleware.GetRole(c)
		h.audit.Record(c.Request.Context(), usecase.AuditEntry{
			Actor:         username,
			RoleSnapshot:  role.String(),
			Action:        "admin.logout",
			TargetType:    "admin_account",
			TargetID:      username,
			Outcome:       usecase.OutcomeSuccess,
			CorrelationID: middleware.GetCorrelationID(c),
		})
	}

	c.Status(http.StatusNoContent)
}
