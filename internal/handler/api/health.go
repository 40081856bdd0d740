package api

import (
	"context"
	"net/http"
	"time"

	"guestgate/internal/infra/controller"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ctrl controller.Controller
}

func NewHealthHandler(ctrl controller.Controller) *HealthHandler {
	return &HealthHandler{ctrl: ctrl}
}

// Check reports liveness plus controller reachability. The portal stays up
// when the controller is down; grants queue until it returns.
func (h *HealthHandler) Check(c *gin.Context) {
	status := "ok"
	controllerStatus := "ok"

	if h.ctrl != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.ctrl.Health(ctx); err != nil {
			status = "degraded"
			controllerStatus = "unreachable"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"controller": controllerStatus,
	})
}
