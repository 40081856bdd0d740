package usecase

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase/readmodel"
)

type CodeType string

const (
	CodeTypeVoucher CodeType = "voucher"
	CodeTypeBooking CodeType = "booking"
	CodeTypeInvalid CodeType = "invalid"
)

var (
	alnumRegex   = regexp.MustCompile(`(?i)^[A-Z0-9]+$`)
	numericRegex = regexp.MustCompile(`^\d{4,}$`)
)

// DetectCodeType classifies guest input. Pure A-Z0-9 strings are voucher
// shaped unless all-numeric (booking slot codes are numeric); anything with
// spaces or punctuation is a booking identifier such as a guest name.
func DetectCodeType(code string) CodeType {
	code = strings.TrimSpace(code)
	if code == "" {
		return CodeTypeInvalid
	}
	if len(code) < 4 || len(code) > 24 {
		return CodeTypeInvalid
	}
	if alnumRegex.MatchString(code) {
		if numericRegex.MatchString(code) {
			return CodeTypeBooking
		}
		return CodeTypeVoucher
	}
	return CodeTypeBooking
}

type GuestAuthInput struct {
	Code         string
	MAC          string
	SessionToken *string
	ClientIP     string
}

// GuestAuthUseCase is the unified entry point behind the guest form: it
// decides whether input is a voucher or a booking code and runs the matching
// path.
type GuestAuthUseCase interface {
	Authorize(ctx context.Context, input GuestAuthInput, correlationID string) (*readmodel.GrantRM, error)
}

type guestAuthUseCaseImpl struct {
	vouchers VoucherUseCase
	bookings BookingUseCase
	logger   *slog.Logger
}

func NewGuestAuthUseCase(vouchers VoucherUseCase, bookings BookingUseCase, logger *slog.Logger) GuestAuthUseCase {
	return &guestAuthUseCaseImpl{vouchers: vouchers, bookings: bookings, logger: logger}
}

func (u *guestAuthUseCaseImpl) Authorize(ctx context.Context, input GuestAuthInput, correlationID string) (*readmodel.GrantRM, error) {
	code := strings.TrimSpace(input.Code)
	actor := GuestActor(input.ClientIP, correlationID)

	switch DetectCodeType(code) {
	case CodeTypeInvalid:
		return nil, errs.Mark(errs.New("authorization code is malformed"), errs.ErrInvalidInput)

	case CodeTypeVoucher:
		// Ambiguous configurations where a voucher code shadows a booking
		// identifier resolve in favor of the booking, so probe the event
		// cache before redeeming.
		if matched, lookupErr := u.bookings.Lookup(ctx, code); lookupErr == nil && matched {
			u.logger.Info("code matches a booking identifier; booking path wins over voucher shape",
				"correlation_id", correlationID)
			return u.bookings.Authorize(ctx, code, input.MAC, input.SessionToken, actor)
		}

		grantRM, err := u.vouchers.Redeem(ctx, RedeemParams{
			Code:         code,
			MAC:          input.MAC,
			SessionToken: input.SessionToken,
			UserInput:    input.Code,
		}, actor)
		if errors.Is(err, errs.ErrVoucherNotFound) {
			// Not a voucher after all; booking identifiers can be voucher
			// shaped.
			return u.bookings.Authorize(ctx, code, input.MAC, input.SessionToken, actor)
		}
		return grantRM, err

	default:
		return u.bookings.Authorize(ctx, code, input.MAC, input.SessionToken, actor)
	}
}
