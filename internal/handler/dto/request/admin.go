package request

type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

type CreateVoucherRequest struct {
	DurationMinutes int     `json:"duration_minutes" binding:"required,gt=0"`
	Length          int     `json:"length" binding:"omitempty,gte=4,lte=24"`
	UpKbps          *int    `json:"up_kbps" binding:"omitempty,gte=1"`
	DownKbps        *int    `json:"down_kbps" binding:"omitempty,gte=1"`
	BookingRef      *string `json:"booking_ref" binding:"omitempty,max=128"`
}

type ExtendGrantRequest struct {
	Minutes int `json:"minutes" binding:"gte=0"`
}

type RevokeGrantRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=256"`
}

type IntegrationRequest struct {
	IntegrationID string `json:"integration_id" binding:"required,max=128"`
	Enabled       bool   `json:"enabled"`
	AuthAttribute string `json:"auth_attribute" binding:"omitempty,oneof=slot_code slot_name last_four"`
	GraceMinutes  int    `json:"checkout_grace_minutes" binding:"gte=0,lte=30"`
}

type PortalConfigRequest struct {
	RateLimitAttempts      int    `json:"rate_limit_attempts" binding:"required,gte=1,lte=100"`
	RateLimitWindowSeconds int    `json:"rate_limit_window_seconds" binding:"required,gte=10,lte=3600"`
	SuccessRedirectURL     string `json:"success_redirect_url" binding:"required,max=2048"`
	VoucherLengthDefault   int    `json:"voucher_length_default" binding:"required,gte=4,lte=24"`
}

type CreateAccountRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     string `json:"role" binding:"required,oneof=viewer auditor operator admin"`
}
