package readmodel

import (
	"time"

	"github.com/google/uuid"
)

// Read models are flat projections handed to the HTTP layer; domain entities
// never cross it.

type VoucherRM struct {
	Code            string
	CreatedUTC      time.Time
	DurationMinutes int
	ExpiresUTC      time.Time
	UpKbps          *int
	DownKbps        *int
	Status          string
	BookingRef      *string
	RedeemedCount   int
	LastRedeemedUTC *time.Time
}

type GrantRM struct {
	ID                uuid.UUID
	VoucherCode       *string
	BookingRef        *string
	IntegrationID     *uuid.UUID
	UserInputCode     *string
	MAC               string
	SessionToken      *string
	StartUTC          time.Time
	EndUTC            time.Time
	ControllerGrantID *string
	Status            string
	CreatedUTC        time.Time
	UpdatedUTC        time.Time
}

type EventRM struct {
	ID            int64
	IntegrationID uuid.UUID
	EventIndex    int
	SlotName      *string
	SlotCode      *string
	LastFour      *string
	StartUTC      time.Time
	EndUTC        time.Time
	CreatedUTC    time.Time
	UpdatedUTC    time.Time
}

type IntegrationRM struct {
	ID                   uuid.UUID
	IntegrationID        string
	Enabled              bool
	AuthAttribute        string
	CheckoutGraceMinutes int
	LastSyncUTC          *time.Time
	StaleCount           int
}

type PortalConfigRM struct {
	RateLimitAttempts      int
	RateLimitWindowSeconds int
	SuccessRedirectURL     string
	VoucherLengthDefault   int
}

type AdminAccountRM struct {
	ID           uuid.UUID
	Username     string
	Role         string
	CreatedUTC   time.Time
	LastLoginUTC *time.Time
}

type AuditEntryRM struct {
	ID            uuid.UUID
	TimestampUTC  time.Time
	Actor         string
	RoleSnapshot  string
	Action        string
	TargetType    string
	TargetID      string
	Outcome       string
	CorrelationID string
	Meta          map[string]any
}

type ControllerOpRM struct {
	ID             uuid.UUID
	OpType         string
	Payload        []byte
	Attempts       int
	NextAttemptUTC time.Time
	Status         string
	CreatedUTC     time.Time
	UpdatedUTC     time.Time
}
