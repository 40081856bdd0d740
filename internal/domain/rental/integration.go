package rental

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidIntegrationID = errors.New("integration_id is required")
	ErrInvalidAuthAttribute = errors.New("invalid auth attribute")
	ErrInvalidGraceMinutes  = errors.New("checkout_grace_minutes must be 0-30")
)

type AuthAttribute string

const (
	AttrSlotCode AuthAttribute = "slot_code"
	AttrSlotName AuthAttribute = "slot_name"
	AttrLastFour AuthAttribute = "last_four"
)

func (a AuthAttribute) Valid() bool {
	switch a {
	case AttrSlotCode, AttrSlotName, AttrLastFour:
		return true
	}
	return false
}

// FallbackChain yields the identifier attributes to try for a configured
// attribute: the configured one first, then slot_code, then slot_name.
func FallbackChain(configured AuthAttribute) []AuthAttribute {
	chain := []AuthAttribute{configured}
	if configured != AttrSlotCode {
		chain = append(chain, AttrSlotCode)
	}
	if configured != AttrSlotName {
		chain = append(chain, AttrSlotName)
	}
	return chain
}

const (
	DefaultGraceMinutes = 15
	MaxGraceMinutes     = 30

	// Consecutive missed polls before an integration is flagged stale, and
	// before booking-derived grants are refused outright.
	StaleWarnThreshold  = 3
	StaleBlockThreshold = 6
)

// IntegrationConfig maps one reservation source to its authorization
// attribute and checkout grace.
type IntegrationConfig struct {
	id            uuid.UUID
	integrationID string
	enabled       bool
	authAttribute AuthAttribute
	graceMinutes  int
	lastSyncAt    *time.Time
	staleCount    int
}

func NewIntegrationConfig(id uuid.UUID, integrationID string, enabled bool, authAttribute AuthAttribute, graceMinutes int) (*IntegrationConfig, error) {
	integrationID = strings.TrimSpace(integrationID)
	if integrationID == "" {
		return nil, ErrInvalidIntegrationID
	}
	if !authAttribute.Valid() {
		return nil, ErrInvalidAuthAttribute
	}
	if graceMinutes < 0 || graceMinutes > MaxGraceMinutes {
		return nil, ErrInvalidGraceMinutes
	}
	return &IntegrationConfig{
		id:            id,
		integrationID: integrationID,
		enabled:       enabled,
		authAttribute: authAttribute,
		graceMinutes:  graceMinutes,
	}, nil
}

func ReconstructIntegrationConfig(id uuid.UUID, integrationID string, enabled bool, authAttribute AuthAttribute, graceMinutes int, lastSyncAt *time.Time, staleCount int) *IntegrationConfig {
	return &IntegrationConfig{
		id:            id,
		integrationID: integrationID,
		enabled:       enabled,
		authAttribute: authAttribute,
		graceMinutes:  graceMinutes,
		lastSyncAt:    lastSyncAt,
		staleCount:    staleCount,
	}
}

// Stale reports whether the integration has missed enough polls to warrant a
// warning.
func (ic *IntegrationConfig) Stale() bool {
	return ic.staleCount >= StaleWarnThreshold
}

// Blocked reports whether booking-derived grants must be refused.
func (ic *IntegrationConfig) Blocked() bool {
	return ic.staleCount >= StaleBlockThreshold
}

func (ic *IntegrationConfig) ID() uuid.UUID               { return ic.id }
func (ic *IntegrationConfig) IntegrationID() string       { return ic.integrationID }
func (ic *IntegrationConfig) Enabled() bool               { return ic.enabled }
func (ic *IntegrationConfig) AuthAttribute() AuthAttribute { return ic.authAttribute }
func (ic *IntegrationConfig) GraceMinutes() int            { return ic.graceMinutes }
func (ic *IntegrationConfig) LastSyncAt() *time.Time      { return ic.lastSyncAt }
func (ic *IntegrationConfig) StaleCount() int             { return ic.staleCount }
