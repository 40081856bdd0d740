//go:build unit

package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"guestgate/internal/domain/rental"
	"guestgate/internal/infra/reservation"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	states map[string]*reservation.EntityState
	err    error
	calls  int
}

func (f *fakeSource) GetEntityState(_ context.Context, entityID string) (*reservation.EntityState, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.states[entityID], nil
}

func rawAttrs(t *testing.T, kv map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(kv))
	for k, v := range kv {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = raw
	}
	return out
}

func newProjectionFixture(t *testing.T, source usecase.ReservationSource, cfg *rental.IntegrationConfig) (usecase.ProjectionUseCase, *fakeEventRepo, *fakeIntegrationRepo, *fakeAudit) {
	t.Helper()
	eventRepo := newFakeEventRepo()
	integrationRepo := newFakeIntegrationRepo(cfg)
	audit := &fakeAudit{}
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	uc := usecase.NewProjectionUseCase(source, eventRepo, integrationRepo, audit, fakeUOW{}, clk, discardLogger())
	return uc, eventRepo, integrationRepo, audit
}

func TestPollAllProjectsEvents(t *testing.T) {
	cfg := rental.ReconstructIntegrationConfig(uuid.New(), "unit1", true, rental.AttrSlotCode, 15, nil, 0)

	source := &fakeSource{states: map[string]*reservation.EntityState{
		"sensor.rental_control_unit1_event_0": {
			EntityID: "sensor.rental_control_unit1_event_0",
			State:    "on",
			Attributes: rawAttrs(t, map[string]any{
				"slot_code": "4821",
				"slot_name": "Jane Doe",
				"start":     "2025-03-01T15:00:00Z",
				"end":       "2025-03-03T11:00:00Z",
				"extra":     "kept for forensics",
			}),
		},
		"sensor.rental_control_unit1_event_1": {
			EntityID: "sensor.rental_control_unit1_event_1",
			State:    "on",
			Attributes: rawAttrs(t, map[string]any{
				"slot_name": "Next Guest",
				"start":     "2025-03-03T15:00:00Z",
				"end":       "2025-03-05T11:00:00Z",
			}),
		},
	}}

	uc, eventRepo, integrationRepo, _ := newProjectionFixture(t, source, cfg)
	require.NoError(t, uc.PollAll(context.Background()))

	events, err := eventRepo.FindByIntegration(context.Background(), nil, cfg.ID())
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.NotNil(t, events[0].SlotCode())
	assert.Equal(t, "4821", *events[0].SlotCode())
	assert.Equal(t, time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC), events[0].Start())
	assert.Contains(t, string(events[0].RawAttributes()), "forensics")

	assert.Equal(t, 0, integrationRepo.stale[cfg.ID()])
	assert.False(t, integrationRepo.synced[cfg.ID()].IsZero())
}

func TestPollAllSkipsEventWithoutWindow(t *testing.T) {
	cfg := rental.ReconstructIntegrationConfig(uuid.New(), "unit1", true, rental.AttrSlotCode, 15, nil, 0)

	source := &fakeSource{states: map[string]*reservation.EntityState{
		"sensor.rental_control_unit1_event_0": {
			Attributes: rawAttrs(t, map[string]any{"slot_code": "4821"}), // no start/end
		},
	}}

	uc, eventRepo, _, _ := newProjectionFixture(t, source, cfg)
	require.NoError(t, uc.PollAll(context.Background()))

	events, err := eventRepo.FindByIntegration(context.Background(), nil, cfg.ID())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPollAllIncrementsStaleOnError(t *testing.T) {
	cfg := rental.ReconstructIntegrationConfig(uuid.New(), "unit1", true, rental.AttrSlotCode, 15, nil, 0)
	source := &fakeSource{err: fmt.Errorf("connection refused")}

	uc, _, integrationRepo, _ := newProjectionFixture(t, source, cfg)
	require.NoError(t, uc.PollAll(context.Background()))

	assert.Equal(t, 1, integrationRepo.stale[cfg.ID()])

	// The failed integration backs off; an immediate second batch skips it.
	callsAfterFirst := source.calls
	require.NoError(t, uc.PollAll(context.Background()))
	assert.Equal(t, callsAfterFirst, source.calls)
	assert.Equal(t, 1, integrationRepo.stale[cfg.ID()])
}

func TestCleanupExpired(t *testing.T) {
	cfg := rental.ReconstructIntegrationConfig(uuid.New(), "unit1", true, rental.AttrSlotCode, 15, nil, 0)
	uc, eventRepo, _, audit := newProjectionFixture(t, &fakeSource{}, cfg)

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	old, err := rental.NewEvent(rental.NewEventParams{
		IntegrationID: cfg.ID(), EventIndex: 0, SlotCode: strptr("1111"),
		Start: now.AddDate(0, 0, -10), End: now.AddDate(0, 0, -8),
	})
	require.NoError(t, err)
	fresh, err := rental.NewEvent(rental.NewEventParams{
		IntegrationID: cfg.ID(), EventIndex: 1, SlotCode: strptr("2222"),
		Start: now.AddDate(0, 0, -2), End: now.AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	require.NoError(t, eventRepo.Upsert(context.Background(), nil, old, now))
	require.NoError(t, eventRepo.Upsert(context.Background(), nil, fresh, now))

	deleted, err := uc.CleanupExpired(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := eventRepo.FindByIntegration(context.Background(), nil, cfg.ID())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "2222", *remaining[0].SlotCode())

	// cleanup count is audited
	assert.Len(t, audit.byAction("events.cleanup"), 1)
}
