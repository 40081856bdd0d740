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

type GrantHandler struct {
	grants usecase.GrantUseCase
}

func NewGrantHandler(grants usecase.GrantUseCase) *GrantHandler {
	return &GrantHandler{grants: grants}
}

func (h *GrantHandler) List(c *gin.Context) {
	rms, err := h.grants.List(c.Request.Context(), c.Query("status"), 200)
	if err != nil {
		httperr.Abort(c, err, middleware.GetCorrelationID(c))
		return
	}
	c.JSON(http.StatusOK, resdto.NewGrantListResponse(rms))
}

func (h *GrantHandler) Extend(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	grantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	var req reqdto.ExtendGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	rm, err := h.grants.Extend(c.Request.Context(), grantID, req.Minutes, middleware.ActorFromContext(c))
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}
	c.JSON(http.StatusOK, resdto.NewGrantResponse(rm))
}

func (h *GrantHandler) Revoke(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	grantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	var req reqdto.RevokeGrantRequest
	_ = c.ShouldBindJSON(&req)

	rm, err := h.grants.Revoke(c.Request.Context(), grantID, req.Reason, middleware.ActorFromContext(c))
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}
	c.JSON(http.StatusOK, resdto.NewGrantResponse(rm))
}
