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
	"github.com/google/uuid"
)

type IntegrationHandler struct {
	integrations usecase.IntegrationUseCase
}

func NewIntegrationHandler(integrations usecase.IntegrationUseCase) *IntegrationHandler {
	return &IntegrationHandler{integrations: integrations}
}

func toParams(req reqdto.IntegrationRequest) usecase.IntegrationParams {
	attr := req.AuthAttribute
	if attr == "" {
		attr = "slot_code"
	}
	return usecase.IntegrationParams{
		IntegrationID: req.IntegrationID,
		Enabled:       req.Enabled,
		AuthAttribute: attr,
		GraceMinutes:  req.GraceMinutes,
	}
}

func (h *IntegrationHandler) Create(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req reqdto.IntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	rm, err := h.integrations.Create(c.Request.Context(), toParams(req), middleware.ActorFromContext(c))
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}
	c.JSON(http.StatusCreated, resdto.NewIntegrationResponse(rm))
}

func (h *IntegrationHandler) Update(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	var req reqdto.IntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	rm, err := h.integrations.Update(c.Request.Context(), id, toParams(req), middleware.ActorFromContext(c))
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}
	c.JSON(http.StatusOK, resdto.NewIntegrationResponse(rm))
}

func (h *IntegrationHandler) Delete(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	if err := h.integrations.Delete(c.Request.Context(), id, middleware.ActorFromContext(c)); err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *IntegrationHandler) List(c *gin.Context) {
	rms, err := h.integrations.List(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err, middleware.GetCorrelationID(c))
		return
	}
	out := make([]resdto.IntegrationResponse, 0, len(rms))
	for _, rm := range rms {
		out = append(out, resdto.NewIntegrationResponse(rm))
	}
	c.JSON(http.StatusOK, out)
}
