package api

import (
	"net/http"

	"guestgate/internal/domain/admin"
	reqdto "guestgate/internal/handler/dto/request"
	resdto "guestgate/internal/handler/dto/response"
	"guestgate/internal/handler/httperr"
	"guestgate/internal/handler/middleware"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	auth usecase.AuthUseCase
}

func NewAccountHandler(auth usecase.AuthUseCase) *AccountHandler {
	return &AccountHandler{auth: auth}
}

func (h *AccountHandler) Create(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req reqdto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	role, ok := admin.ParseRole(req.Role)
	if !ok {
		httperr.Abort(c, errs.Mark(admin.ErrInvalidRole, errs.ErrInvalidInput), correlationID)
		return
	}

	rm, err := h.auth.CreateAccount(c.Request.Context(), req.Username, req.Password, role, middleware.ActorFromContext(c))
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}
	c.JSON(http.StatusCreated, resdto.NewAccountResponse(rm))
}

func (h *AccountHandler) List(c *gin.Context) {
	rms, err := h.auth.ListAccounts(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err, middleware.GetCorrelationID(c))
		return
	}
	out := make([]resdto.AccountResponse, 0, len(rms))
	for _, rm := range rms {
		out = append(out, resdto.NewAccountResponse(rm))
	}
	c.JSON(http.StatusOK, out)
}
