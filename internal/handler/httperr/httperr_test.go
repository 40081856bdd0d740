//go:build unit

package httperr_test

import (
	"net/http"
	"testing"

	"guestgate/internal/handler/httperr"
	"guestgate/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errs.ErrInvalidInput, http.StatusBadRequest, httperr.CodeInvalidInput},
		{errs.ErrVoucherNotFound, http.StatusNotFound, httperr.CodeNotFound},
		{errs.ErrBookingNotFound, http.StatusNotFound, httperr.CodeNotFound},
		{errs.ErrOutsideWindow, http.StatusGone, httperr.CodeOutsideWindow},
		{errs.ErrDuplicateRedemption, http.StatusConflict, httperr.CodeDuplicateRedemption},
		{errs.ErrDuplicateGrant, http.StatusConflict, httperr.CodeConflict},
		{errs.ErrRateLimited, http.StatusTooManyRequests, httperr.CodeRateLimited},
		{errs.ErrUnauthorized, http.StatusUnauthorized, httperr.CodeUnauthorized},
		{errs.ErrForbidden, http.StatusForbidden, httperr.CodeRBACForbidden},
		{errs.ErrIntegrationUnavailable, http.StatusServiceUnavailable, httperr.CodeIntegrationUnavailable},
		{errs.ErrControllerUnavailable, http.StatusServiceUnavailable, httperr.CodeControllerUnavailable},
		{errs.ErrControllerTimeout, http.StatusServiceUnavailable, httperr.CodeControllerTimeout},
		{errs.New("anything else"), http.StatusInternalServerError, httperr.CodeInternalError},
	}

	for _, tc := range cases {
		status, code := httperr.Status(tc.err)
		assert.Equal(t, tc.status, status, tc.err)
		assert.Equal(t, tc.code, code, tc.err)
	}
}

func TestMarkedErrorsMap(t *testing.T) {
	// wrapped + marked errors carry their sentinel through the boundary
	err := errs.Mark(errs.Wrap(errs.New("pg: duplicate key"), "insert failed"), errs.ErrDuplicateRedemption)
	status, code := httperr.Status(err)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, httperr.CodeDuplicateRedemption, code)
}
