package controller

import (
	"context"
	"time"
)

// RadioContext carries the wireless placement the controller needs to locate
// the client.
type RadioContext struct {
	APMac      string `json:"ap_mac,omitempty"`
	GatewayMac string `json:"gateway_mac,omitempty"`
	SSIDName   string `json:"ssid_name,omitempty"`
	VID        *int   `json:"vid,omitempty"`
	RadioID    *int   `json:"radio_id,omitempty"`
}

type AuthorizeParams struct {
	MAC      string
	Radio    RadioContext
	End      time.Time
	UpKbps   int
	DownKbps int
}

// Controller is the capability surface of a Wi-Fi controller. Implementations
// are selected by configuration; TP-Omada is the one shipped.
type Controller interface {
	// Authorize admits the device until params.End and returns the
	// controller-side grant identifier.
	Authorize(ctx context.Context, params AuthorizeParams) (string, error)
	// Revoke removes the device's authorization. Revoking an unknown device
	// is a no-op success.
	Revoke(ctx context.Context, mac string) error
	// Extend pushes the expiry of an authorized device to newEnd.
	Extend(ctx context.Context, mac string, newEnd time.Time) error
	// Health reports reachability of the controller.
	Health(ctx context.Context) error
}
