package httperr

import (
	"errors"
	"net/http"

	"guestgate/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

// Error codes of the envelope. Fixed enum; clients switch on these, never on
// messages.
const (
	CodeInvalidInput           = "INVALID_INPUT"
	CodeNotFound               = "NOT_FOUND"
	CodeConflict               = "CONFLICT"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeRBACForbidden          = "RBAC_FORBIDDEN"
	CodeControllerUnavailable  = "CONTROLLER_UNAVAILABLE"
	CodeControllerTimeout      = "CONTROLLER_TIMEOUT"
	CodeRateLimited            = "RATE_LIMITED"
	CodeInternalError          = "INTERNAL_ERROR"
	CodeDuplicateRedemption    = "DUPLICATE_REDEMPTION"
	CodeRetryExhausted         = "RETRY_EXHAUSTED"
	CodeOutsideWindow          = "OUTSIDE_WINDOW"
	CodeIntegrationUnavailable = "INTEGRATION_UNAVAILABLE"
)

// Response is the error envelope materialized at the HTTP boundary only.
type Response struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

type mapping struct {
	status  int
	code    string
	message string
}

// Guest-visible messages are deliberately generic; specific failure reasons
// live in the audit log.
var errorMappings = []struct {
	sentinel error
	mapping  mapping
}{
	{errs.ErrInvalidInput, mapping{http.StatusBadRequest, CodeInvalidInput, "Invalid input"}},
	{errs.ErrInvalidFormat, mapping{http.StatusBadRequest, CodeInvalidInput, "Invalid input"}},
	{errs.ErrVoucherNotFound, mapping{http.StatusNotFound, CodeNotFound, "Invalid authorization code"}},
	{errs.ErrBookingNotFound, mapping{http.StatusNotFound, CodeNotFound, "Invalid authorization code"}},
	{errs.ErrNotFound, mapping{http.StatusNotFound, CodeNotFound, "Not found"}},
	{errs.ErrGrantNotFound, mapping{http.StatusNotFound, CodeNotFound, "Not found"}},
	{errs.ErrIntegrationNotFound, mapping{http.StatusNotFound, CodeNotFound, "Not found"}},
	{errs.ErrVoucherExpired, mapping{http.StatusGone, CodeOutsideWindow, "Invalid authorization code"}},
	{errs.ErrVoucherRevoked, mapping{http.StatusGone, CodeOutsideWindow, "Invalid authorization code"}},
	{errs.ErrOutsideWindow, mapping{http.StatusGone, CodeOutsideWindow, "Authorization window has closed"}},
	{errs.ErrDuplicateRedemption, mapping{http.StatusConflict, CodeDuplicateRedemption, "Code already used on this device"}},
	{errs.ErrDuplicateGrant, mapping{http.StatusConflict, CodeConflict, "Code already used on this device"}},
	{errs.ErrConflict, mapping{http.StatusConflict, CodeConflict, "Conflict"}},
	{errs.ErrGrantOperation, mapping{http.StatusConflict, CodeConflict, "Operation not permitted for this grant"}},
	{errs.ErrVoucherCollision, mapping{http.StatusInternalServerError, CodeRetryExhausted, "Could not generate a voucher code"}},
	{errs.ErrRateLimited, mapping{http.StatusTooManyRequests, CodeRateLimited, "Too many attempts"}},
	{errs.ErrUnauthorized, mapping{http.StatusUnauthorized, CodeUnauthorized, "Authentication required"}},
	{errs.ErrForbidden, mapping{http.StatusForbidden, CodeRBACForbidden, "Forbidden"}},
	{errs.ErrIntegrationUnavailable, mapping{http.StatusServiceUnavailable, CodeIntegrationUnavailable, "Service temporarily unavailable"}},
	{errs.ErrControllerTimeout, mapping{http.StatusServiceUnavailable, CodeControllerTimeout, "Service temporarily unavailable"}},
	{errs.ErrControllerUnavailable, mapping{http.StatusServiceUnavailable, CodeControllerUnavailable, "Service temporarily unavailable"}},
	{errs.ErrRetryExhausted, mapping{http.StatusServiceUnavailable, CodeRetryExhausted, "Service temporarily unavailable"}},
}

func classify(err error) mapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			return m.mapping
		}
	}
	return mapping{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
}

// Abort writes the envelope for err and aborts the chain. The original error
// is attached to the context for the logging middleware.
func Abort(c *gin.Context, err error, correlationID string) {
	m := classify(err)

	_ = c.Error(gin.Error{Err: err, Type: gin.ErrorTypePrivate})
	c.AbortWithStatusJSON(m.status, Response{
		Error:         m.message,
		Code:          m.code,
		CorrelationID: correlationID,
	})
}

// Status resolves the HTTP status and envelope code for err without writing
// a response.
func Status(err error) (int, string) {
	m := classify(err)
	return m.status, m.code
}
