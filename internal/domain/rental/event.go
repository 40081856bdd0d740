package rental

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingWindow     = errors.New("event is missing start or end")
	ErrMissingIdentifier = errors.New("event has no usable identifier")
)

// Event is a cached reservation-source event. Index 0 is the current or
// outgoing booking, index 1 the incoming one.
type Event struct {
	id            int64
	integrationID uuid.UUID
	eventIndex    int
	slotName      *string
	slotCode      *string
	lastFour      *string
	start         time.Time
	end           time.Time
	rawAttributes []byte
	createdAt     time.Time
	updatedAt     time.Time
}

type NewEventParams struct {
	IntegrationID uuid.UUID
	EventIndex    int
	SlotName      *string
	SlotCode      *string
	LastFour      *string
	Start         time.Time
	End           time.Time
	RawAttributes []byte
}

func NewEvent(p NewEventParams) (*Event, error) {
	if p.Start.IsZero() || p.End.IsZero() {
		return nil, ErrMissingWindow
	}
	if isBlank(p.SlotName) && isBlank(p.SlotCode) && isBlank(p.LastFour) {
		return nil, ErrMissingIdentifier
	}
	return &Event{
		integrationID: p.IntegrationID,
		eventIndex:    p.EventIndex,
		slotName:      p.SlotName,
		slotCode:      p.SlotCode,
		lastFour:      p.LastFour,
		start:         p.Start,
		end:           p.End,
		rawAttributes: p.RawAttributes,
	}, nil
}

func ReconstructEvent(id int64, integrationID uuid.UUID, eventIndex int, slotName, slotCode, lastFour *string, start, end time.Time, rawAttributes []byte, createdAt, updatedAt time.Time) *Event {
	return &Event{
		id:            id,
		integrationID: integrationID,
		eventIndex:    eventIndex,
		slotName:      slotName,
		slotCode:      slotCode,
		lastFour:      lastFour,
		start:         start,
		end:           end,
		rawAttributes: rawAttributes,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// AttributeValue returns the identifier stored under attr, original case.
func (e *Event) AttributeValue(attr AuthAttribute) *string {
	switch attr {
	case AttrSlotCode:
		return e.slotCode
	case AttrSlotName:
		return e.slotName
	case AttrLastFour:
		return e.lastFour
	}
	return nil
}

// Matches reports whether input equals any usable identifier of the event,
// case-insensitively, starting with the configured attribute and falling back
// per the projection rule.
func (e *Event) Matches(input string, configured AuthAttribute) (string, bool) {
	input = strings.TrimSpace(input)
	for _, attr := range FallbackChain(configured) {
		v := e.AttributeValue(attr)
		if v == nil || *v == "" {
			continue
		}
		if strings.EqualFold(*v, input) {
			return *v, true
		}
	}
	return "", false
}

func (e *Event) ID() int64                { return e.id }
func (e *Event) IntegrationID() uuid.UUID { return e.integrationID }
func (e *Event) EventIndex() int          { return e.eventIndex }
func (e *Event) SlotName() *string        { return e.slotName }
func (e *Event) SlotCode() *string        { return e.slotCode }
func (e *Event) LastFour() *string        { return e.lastFour }
func (e *Event) Start() time.Time         { return e.start }
func (e *Event) End() time.Time           { return e.end }
func (e *Event) RawAttributes() []byte    { return e.rawAttributes }
func (e *Event) CreatedAt() time.Time     { return e.createdAt }
func (e *Event) UpdatedAt() time.Time     { return e.updatedAt }
