package grant

import (
	"errors"
	"time"

	"guestgate/internal/pkg/timeutil"

	"github.com/google/uuid"
)

var (
	ErrMACRequired          = errors.New("MAC address is required")
	ErrIdentifierRequired   = errors.New("voucher code or booking ref is required")
	ErrInvalidWindow        = errors.New("end must be after start")
	ErrInvalidMinutes       = errors.New("additional minutes must be >= 0")
	ErrRevokedNotExtensible = errors.New("cannot extend a revoked grant")
)

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Grant is an authorized access window for one device. Lifetimes are
// minute-aligned: start floors, end ceils, extensions included.
type Grant struct {
	id                uuid.UUID
	voucherCode       *string
	bookingRef        *string
	integrationID     *uuid.UUID
	userInputCode     *string
	mac               string
	sessionToken      *string
	start             time.Time
	end               time.Time
	controllerGrantID *string
	status            Status
	createdAt         time.Time
	updatedAt         time.Time
}

type NewGrantParams struct {
	ID            uuid.UUID
	VoucherCode   *string
	BookingRef    *string
	IntegrationID *uuid.UUID
	UserInputCode *string
	MAC           string
	SessionToken  *string
	Start         time.Time
	End           time.Time
	Now           time.Time
}

func NewGrant(p NewGrantParams) (*Grant, error) {
	if p.MAC == "" && p.SessionToken == nil {
		return nil, ErrMACRequired
	}
	if p.VoucherCode == nil && p.BookingRef == nil {
		return nil, ErrIdentifierRequired
	}

	start := timeutil.FloorToMinute(p.Start)
	end := timeutil.CeilToMinute(p.End)
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}

	return &Grant{
		id:            p.ID,
		voucherCode:   p.VoucherCode,
		bookingRef:    p.BookingRef,
		integrationID: p.IntegrationID,
		userInputCode: p.UserInputCode,
		mac:           p.MAC,
		sessionToken:  p.SessionToken,
		start:         start,
		end:           end,
		status:        StatusPending,
		createdAt:     p.Now,
		updatedAt:     p.Now,
	}, nil
}

func Reconstruct(id uuid.UUID, voucherCode, bookingRef *string, integrationID *uuid.UUID, userInputCode *string, mac string, sessionToken *string, start, end time.Time, controllerGrantID *string, status Status, createdAt, updatedAt time.Time) *Grant {
	return &Grant{
		id:                id,
		voucherCode:       voucherCode,
		bookingRef:        bookingRef,
		integrationID:     integrationID,
		userInputCode:     userInputCode,
		mac:               mac,
		sessionToken:      sessionToken,
		start:             start,
		end:               end,
		controllerGrantID: controllerGrantID,
		status:            status,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// Identifier is the voucher code or booking ref the grant was issued against.
func (g *Grant) Identifier() string {
	if g.voucherCode != nil {
		return *g.voucherCode
	}
	if g.bookingRef != nil {
		return *g.bookingRef
	}
	return ""
}

// Extend pushes end forward by minutes and ceils. An EXPIRED grant
// reactivates, measured from whichever of end/now is later; a REVOKED grant
// is terminal.
func (g *Grant) Extend(minutes int, now time.Time) error {
	if minutes < 0 {
		return ErrInvalidMinutes
	}
	if g.status == StatusRevoked {
		return ErrRevokedNotExtensible
	}

	base := g.end
	if g.status == StatusExpired {
		if now.After(base) {
			base = now
		}
		g.status = StatusActive
	}
	g.end = timeutil.CeilToMinute(base.Add(time.Duration(minutes) * time.Minute))
	g.updatedAt = now
	return nil
}

// Revoke is idempotent; the second call reports no change. End is clamped to
// now at second precision.
func (g *Grant) Revoke(now time.Time) bool {
	if g.status == StatusRevoked {
		return false
	}
	g.status = StatusRevoked
	g.end = timeutil.TruncateToSecond(now)
	g.updatedAt = now
	return true
}

// Expire moves an ACTIVE or PENDING grant whose window has closed to EXPIRED.
func (g *Grant) Expire(now time.Time) bool {
	if g.status != StatusActive && g.status != StatusPending {
		return false
	}
	if now.Before(g.end) {
		return false
	}
	g.status = StatusExpired
	g.updatedAt = now
	return true
}

// Activate records controller acknowledgement.
func (g *Grant) Activate(controllerGrantID string, now time.Time) {
	if g.status == StatusPending {
		g.status = StatusActive
	}
	g.controllerGrantID = &controllerGrantID
	g.updatedAt = now
}

// ReconcileMAC fills in the MAC captured after a session-token fallback.
func (g *Grant) ReconcileMAC(mac string, now time.Time) {
	g.mac = mac
	g.sessionToken = nil
	g.updatedAt = now
}

func (g *Grant) ID() uuid.UUID              { return g.id }
func (g *Grant) VoucherCode() *string       { return g.voucherCode }
func (g *Grant) BookingRef() *string        { return g.bookingRef }
func (g *Grant) IntegrationID() *uuid.UUID  { return g.integrationID }
func (g *Grant) UserInputCode() *string     { return g.userInputCode }
func (g *Grant) MAC() string                { return g.mac }
func (g *Grant) SessionToken() *string      { return g.sessionToken }
func (g *Grant) Start() time.Time           { return g.start }
func (g *Grant) End() time.Time             { return g.end }
func (g *Grant) ControllerGrantID() *string { return g.controllerGrantID }
func (g *Grant) Status() Status             { return g.status }
func (g *Grant) CreatedAt() time.Time       { return g.createdAt }
func (g *Grant) UpdatedAt() time.Time       { return g.updatedAt }
