package errs

import "errors"

// Domain sentinel errors shared across usecase layers. The HTTP layer maps
// these onto the error envelope; nothing below it speaks in status codes.
var (
	// Input validation
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidFormat = errors.New("invalid format")

	// Voucher errors
	ErrVoucherNotFound     = errors.New("voucher not found")
	ErrVoucherExpired      = errors.New("voucher expired")
	ErrVoucherRevoked      = errors.New("voucher revoked")
	ErrVoucherCollision    = errors.New("voucher code collision retries exhausted")
	ErrDuplicateRedemption = errors.New("voucher already redeemed for this device")

	// Grant errors
	ErrGrantNotFound  = errors.New("grant not found")
	ErrGrantRevoked   = errors.New("grant is revoked")
	ErrGrantOperation = errors.New("grant operation not permitted")

	// Booking errors
	ErrBookingNotFound        = errors.New("booking code not found")
	ErrOutsideWindow          = errors.New("outside booking window")
	ErrDuplicateGrant         = errors.New("grant already exists for this device")
	ErrIntegrationUnavailable = errors.New("integration unavailable")
	ErrIntegrationNotFound    = errors.New("integration not found")

	// Guest pipeline
	ErrRateLimited = errors.New("rate limited")

	// Controller errors
	ErrControllerUnavailable = errors.New("controller unavailable")
	ErrControllerTimeout     = errors.New("controller timeout")
	ErrControllerRejected    = errors.New("controller rejected operation")
	ErrRetryExhausted        = errors.New("retry attempts exhausted")

	// Auth / RBAC
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// Operation markers for categorization
	ErrDomainValidationFailed  = errors.New("domain validation failed")
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
