package response

import (
	"time"

	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type VoucherResponse struct {
	Code            string     `json:"code"`
	CreatedUTC      time.Time  `json:"created_utc"`
	DurationMinutes int        `json:"duration_minutes"`
	ExpiresUTC      time.Time  `json:"expires_utc"`
	UpKbps          *int       `json:"up_kbps,omitempty"`
	DownKbps        *int       `json:"down_kbps,omitempty"`
	Status          string     `json:"status"`
	BookingRef      *string    `json:"booking_ref,omitempty"`
	RedeemedCount   int        `json:"redeemed_count"`
	LastRedeemedUTC *time.Time `json:"last_redeemed_utc,omitempty"`
}

func NewVoucherResponse(rm *readmodel.VoucherRM) VoucherResponse {
	return VoucherResponse{
		Code:            rm.Code,
		CreatedUTC:      rm.CreatedUTC,
		DurationMinutes: rm.DurationMinutes,
		ExpiresUTC:      rm.ExpiresUTC,
		UpKbps:          rm.UpKbps,
		DownKbps:        rm.DownKbps,
		Status:          rm.Status,
		BookingRef:      rm.BookingRef,
		RedeemedCount:   rm.RedeemedCount,
		LastRedeemedUTC: rm.LastRedeemedUTC,
	}
}

type GrantResponse struct {
	ID                uuid.UUID  `json:"id"`
	VoucherCode       *string    `json:"voucher_code,omitempty"`
	BookingRef        *string    `json:"booking_ref,omitempty"`
	IntegrationID     *uuid.UUID `json:"integration_id,omitempty"`
	MAC               string     `json:"mac"`
	StartUTC          time.Time  `json:"start_utc"`
	EndUTC            time.Time  `json:"end_utc"`
	ControllerGrantID *string    `json:"controller_grant_id,omitempty"`
	Status            string     `json:"status"`
	CreatedUTC        time.Time  `json:"created_utc"`
	UpdatedUTC        time.Time  `json:"updated_utc"`
}

func NewGrantResponse(rm *readmodel.GrantRM) GrantResponse {
	return GrantResponse{
		ID:                rm.ID,
		VoucherCode:       rm.VoucherCode,
		BookingRef:        rm.BookingRef,
		IntegrationID:     rm.IntegrationID,
		MAC:               rm.MAC,
		StartUTC:          rm.StartUTC,
		EndUTC:            rm.EndUTC,
		ControllerGrantID: rm.ControllerGrantID,
		Status:            rm.Status,
		CreatedUTC:        rm.CreatedUTC,
		UpdatedUTC:        rm.UpdatedUTC,
	}
}

func NewGrantListResponse(rms []*readmodel.GrantRM) []GrantResponse {
	out := make([]GrantResponse, 0, len(rms))
	for _, rm := range rms {
		out = append(out, NewGrantResponse(rm))
	}
	return out
}

type IntegrationResponse struct {
	ID                   uuid.UUID  `json:"id"`
	IntegrationID        string     `json:"integration_id"`
	Enabled              bool       `json:"enabled"`
	AuthAttribute        string     `json:"auth_attribute"`
	CheckoutGraceMinutes int        `json:"checkout_grace_minutes"`
	LastSyncUTC          *time.Time `json:"last_sync_utc,omitempty"`
	StaleCount           int        `json:"stale_count"`
}

func NewIntegrationResponse(rm *readmodel.IntegrationRM) IntegrationResponse {
	return IntegrationResponse{
		ID:                   rm.ID,
		IntegrationID:        rm.IntegrationID,
		Enabled:              rm.Enabled,
		AuthAttribute:        rm.AuthAttribute,
		CheckoutGraceMinutes: rm.CheckoutGraceMinutes,
		LastSyncUTC:          rm.LastSyncUTC,
		StaleCount:           rm.StaleCount,
	}
}

type PortalConfigResponse struct {
	RateLimitAttempts      int    `json:"rate_limit_attempts"`
	RateLimitWindowSeconds int    `json:"rate_limit_window_seconds"`
	SuccessRedirectURL     string `json:"success_redirect_url"`
	VoucherLengthDefault   int    `json:"voucher_length_default"`
}

func NewPortalConfigResponse(rm *readmodel.PortalConfigRM) PortalConfigResponse {
	return PortalConfigResponse{
		RateLimitAttempts:      rm.RateLimitAttempts,
		RateLimitWindowSeconds: rm.RateLimitWindowSeconds,
		SuccessRedirectURL:     rm.SuccessRedirectURL,
		VoucherLengthDefault:   rm.VoucherLengthDefault,
	}
}

type AccountResponse struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Role         string     `json:"role"`
	CreatedUTC   time.Time  `json:"created_utc"`
	LastLoginUTC *time.Time `json:"last_login_utc,omitempty"`
}

func NewAccountResponse(rm *readmodel.AdminAccountRM) AccountResponse {
	return AccountResponse{
		ID:           rm.ID,
		Username:     rm.Username,
		Role:         rm.Role,
		CreatedUTC:   rm.CreatedUTC,
		LastLoginUTC: rm.LastLoginUTC,
	}
}

type AuditEntryResponse struct {
	ID            uuid.UUID      `json:"id"`
	TimestampUTC  time.Time      `json:"timestamp_utc"`
	Actor         string         `json:"actor"`
	RoleSnapshot  string         `json:"role_snapshot"`
	Action        string         `json:"action"`
	TargetType    string         `json:"target_type"`
	TargetID      string         `json:"target_id"`
	Outcome       string         `json:"outcome"`
	CorrelationID string         `json:"correlation_id"`
	Meta          map[string]any `json:"meta,omitempty"`
}

func NewAuditEntryResponse(rm *readmodel.AuditEntryRM) AuditEntryResponse {
	return AuditEntryResponse{
		ID:            rm.ID,
		TimestampUTC:  rm.TimestampUTC,
		Actor:         rm.Actor,
		RoleSnapshot:  rm.RoleSnapshot,
		Action:        rm.Action,
		TargetType:    rm.TargetType,
		TargetID:      rm.TargetID,
		Outcome:       rm.Outcome,
		CorrelationID: rm.CorrelationID,
		Meta:          rm.Meta,
	}
}
