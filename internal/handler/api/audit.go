package api

import (
	"net/http"
	"strconv"

	resdto "guestgate/internal/handler/dto/response"
	"guestgate/internal/handler/httperr"
	"guestgate/internal/handler/middleware"
	"guestgate/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	audit usecase.AuditUseCase
}

func NewAuditHandler(audit usecase.AuditUseCase) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	rms, err := h.audit.List(c.Request.Context(), limit)
	if err != nil {
		httperr.Abort(c, err, middleware.GetCorrelationID(c))
		return
	}
	out := make([]resdto.AuditEntryResponse, 0, len(rms))
	for _, rm := range rms {
		out = append(out, resdto.NewAuditEntryResponse(rm))
	}
	c.JSON(http.StatusOK, out)
}
