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

type VoucherHandler struct {
	vouchers usecase.VoucherUseCase
}

func NewVoucherHandler(vouchers usecase.VoucherUseCase) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers}
}

func (h *VoucherHandler) Create(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req reqdto.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Abort(c, errs.Mark(err, errs.ErrInvalidInput), correlationID)
		return
	}

	rm, err := h.vouchers.Create(c.Request.Context(), usecase.CreateVoucherParams{
		Length:          req.Length,
		DurationMinutes: req.DurationMinutes,
		UpKbps:          req.UpKbps,
		DownKbps:        req.DownKbps,
		BookingRef:      req.BookingRef,
	}, middleware.ActorFromContext(c))
	if err != nil {
		httperr.Abort(c, err, correlationID)
		return
	}
	c.JSON(http.StatusCreated, resdto.NewVoucherResponse(rm))
}

func (h *VoucherHandler) List(c *gin.Context) {
	rms, err := h.vouchers.List(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err, middleware.GetCorrelationID(c))
		return
	}
	out := make([]resdto.VoucherResponse, 0, len(rms))
	for _, rm := range rms {
		out = append(out, resdto.NewVoucherResponse(rm))
	}
	c.JSON(http.StatusOK, out)
}
