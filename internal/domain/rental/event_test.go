//go:build unit

package rental_test

import (
	"testing"
	"time"

	"guestgate/internal/domain/rental"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func newEvent(t *testing.T, slotName, slotCode, lastFour *string) *rental.Event {
	t.Helper()
	start := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	e, err := rental.NewEvent(rental.NewEventParams{
		IntegrationID: uuid.New(),
		EventIndex:    0,
		SlotName:      slotName,
		SlotCode:      slotCode,
		LastFour:      lastFour,
		Start:         start,
		End:           start.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	return e
}

func TestNewEventValidation(t *testing.T) {
	_, err := rental.NewEvent(rental.NewEventParams{
		IntegrationID: uuid.New(),
		SlotCode:      strptr("4821"),
		End:           time.Now(),
	})
	assert.ErrorIs(t, err, rental.ErrMissingWindow)

	_, err = rental.NewEvent(rental.NewEventParams{
		IntegrationID: uuid.New(),
		Start:         time.Now(),
		End:           time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, rental.ErrMissingIdentifier)

	_, err = rental.NewEvent(rental.NewEventParams{
		IntegrationID: uuid.New(),
		SlotName:      strptr("   "),
		Start:         time.Now(),
		End:           time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, rental.ErrMissingIdentifier)
}

func TestFallbackChain(t *testing.T) {
	assert.Equal(t,
		[]rental.AuthAttribute{rental.AttrSlotCode, rental.AttrSlotName},
		rental.FallbackChain(rental.AttrSlotCode))
	assert.Equal(t,
		[]rental.AuthAttribute{rental.AttrSlotName, rental.AttrSlotCode},
		rental.FallbackChain(rental.AttrSlotName))
	assert.Equal(t,
		[]rental.AuthAttribute{rental.AttrLastFour, rental.AttrSlotCode, rental.AttrSlotName},
		rental.FallbackChain(rental.AttrLastFour))
}

func TestMatchesCaseInsensitive(t *testing.T) {
	e := newEvent(t, strptr("Jane Doe"), strptr("4821"), nil)

	for _, input := range []string{"4821", " 4821 "} {
		id, ok := e.Matches(input, rental.AttrSlotCode)
		require.True(t, ok, input)
		assert.Equal(t, "4821", id)
	}

	for _, input := range []string{"jane doe", "JANE DOE", "Jane Doe"} {
		id, ok := e.Matches(input, rental.AttrSlotName)
		require.True(t, ok, input)
		// stored case is preserved in the result
		assert.Equal(t, "Jane Doe", id)
	}

	_, ok := e.Matches("nobody", rental.AttrSlotName)
	assert.False(t, ok)
}

func TestMatchesFallsBack(t *testing.T) {
	// configured last_four missing; slot_code matches via fallback
	e := newEvent(t, nil, strptr("4821"), nil)
	id, ok := e.Matches("4821", rental.AttrLastFour)
	require.True(t, ok)
	assert.Equal(t, "4821", id)
}

func TestIntegrationConfigValidation(t *testing.T) {
	_, err := rental.NewIntegrationConfig(uuid.New(), "", true, rental.AttrSlotCode, 15)
	assert.ErrorIs(t, err, rental.ErrInvalidIntegrationID)

	_, err = rental.NewIntegrationConfig(uuid.New(), "unit1", true, rental.AuthAttribute("bogus"), 15)
	assert.ErrorIs(t, err, rental.ErrInvalidAuthAttribute)

	_, err = rental.NewIntegrationConfig(uuid.New(), "unit1", true, rental.AttrSlotCode, 31)
	assert.ErrorIs(t, err, rental.ErrInvalidGraceMinutes)

	_, err = rental.NewIntegrationConfig(uuid.New(), "unit1", true, rental.AttrSlotCode, -1)
	assert.ErrorIs(t, err, rental.ErrInvalidGraceMinutes)

	ic, err := rental.NewIntegrationConfig(uuid.New(), "unit1", true, rental.AttrSlotCode, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, ic.GraceMinutes())
}

func TestStaleThresholds(t *testing.T) {
	cases := []struct {
		staleCount int
		stale      bool
		blocked    bool
	}{
		{0, false, false},
		{2, false, false},
		{3, true, false},
		{5, true, false},
		{6, true, true},
		{10, true, true},
	}
	for _, tc := range cases {
		ic := rental.ReconstructIntegrationConfig(uuid.New(), "unit1", true,
			rental.AttrSlotCode, 15, nil, tc.staleCount)
		assert.Equal(t, tc.stale, ic.Stale(), "stale at %d", tc.staleCount)
		assert.Equal(t, tc.blocked, ic.Blocked(), "blocked at %d", tc.staleCount)
	}
}
