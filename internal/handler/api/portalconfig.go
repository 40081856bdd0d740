package api

import (
	"net/http"

	reqdto "guestgate/internal/handler/dto/request"
	resdto "guestgate/internal/handler/dto/response"
	"guestgate/internal/handler/httperr"
	"guestgate/internal/handler/middleware"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PortalConfigHandler struct {
	portalConfig usecase.PortalConfigUseCase
}

func NewPortalConfigHandler(portalConfig usecase.PortalConfigUseCase) *PortalConfigHandler {
	return &PortalConfigHandler{portalConfig: portalConfig}
}

func (h *PortalConfigHandler) Get(c *gin.Context) {
	rm, err := h.portalConfig.Get(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err, middleware.GetCorrelationID(c))
		return
	}
	c.JSON(http.StatusOK, resdto.NewPortalConfigResponse(rm))
}

func (h *PortalConfigHandler) Update(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req reqdto.PortalConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	rm, err := h.portalConfig.Update(c.Request.Context(), usecase.PortalConfigParams{
		RateLimitAttempts:      req.RateLimitAttempts,
		RateLimitWindowSeconds: req.RateLimitWindowSeconds,
		SuccessRedirectURL:     req.SuccessRedirectURL,
		VoucherLengthDefault:   req.VoucherLengthDefault,
	}, middleware.ActorFromContext(c))
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}
	c.JSON(http.StatusOK, resdto.NewPortalConfigResponse(rm))
}
