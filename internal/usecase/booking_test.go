//go:build unit

package usecase_test

import (
	"context"
	"testing"
	"time"

	"guestgate/internal/domain/rental"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

type bookingFixture struct {
	uc        usecase.BookingUseCase
	grants    usecase.GrantUseCase
	eventRepo *fakeEventRepo
	grantRepo *fakeGrantRepo
	queueRepo *fakeQueueRepo
	audit     *fakeAudit
	clk       *clock.MockClock
	cfg       *rental.IntegrationConfig
}

func newBookingFixture(t *testing.T, now time.Time, staleCount int) *bookingFixture {
	t.Helper()

	cfg := rental.ReconstructIntegrationConfig(uuid.New(), "unit1", true, rental.AttrSlotCode, 15, nil, staleCount)
	integrationRepo := newFakeIntegrationRepo(cfg)
	eventRepo := newFakeEventRepo()
	grantRepo := newFakeGrantRepo()
	queueRepo := &fakeQueueRepo{}
	audit := &fakeAudit{}
	clk := clock.NewMockClock(now)

	grants := usecase.NewGrantUseCase(grantRepo, queueRepo, audit, fakeUOW{}, clk, discardLogger())
	uc := usecase.NewBookingUseCase(eventRepo, integrationRepo, grantRepo, grants, fakeUOW{}, clk, discardLogger())

	return &bookingFixture{
		uc:        uc,
		grants:    grants,
		eventRepo: eventRepo,
		grantRepo: grantRepo,
		queueRepo: queueRepo,
		audit:     audit,
		clk:       clk,
		cfg:       cfg,
	}
}

func (f *bookingFixture) seedEvent(t *testing.T, slotCode string, start, end time.Time) {
	t.Helper()
	e, err := rental.NewEvent(rental.NewEventParams{
		IntegrationID: f.cfg.ID(),
		EventIndex:    0,
		SlotCode:      strptr(slotCode),
		SlotName:      strptr("Jane Doe"),
		Start:         start,
		End:           end,
	})
	require.NoError(t, err)
	require.NoError(t, f.eventRepo.Upsert(context.Background(), nil, e, start))
}

const testMAC = "AA:BB:CC:DD:EE:FF"

func TestBookingGraceBoundary(t *testing.T) {
	// Scenario: event ends 11:00, grace 15min. 11:10 admits; 11:15 admits
	// (inclusive); 11:15:01 refuses.
	end := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	start := end.Add(-48 * time.Hour)

	cases := []struct {
		name string
		now  time.Time
		err  error
	}{
		{name: "within stay", now: end.Add(-time.Hour)},
		{name: "in grace", now: end.Add(10 * time.Minute)},
		{name: "grace boundary inclusive", now: end.Add(15 * time.Minute)},
		{name: "one second past grace", now: end.Add(15*time.Minute + time.Second), err: errs.ErrOutsideWindow},
		{name: "sixteen minutes", now: end.Add(16 * time.Minute), err: errs.ErrOutsideWindow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture(t, tc.now, 0)
			f.seedEvent(t, "4821", start, end)

			match, err := f.uc.Validate(context.Background(), "4821", testMAC, f.cfg)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "4821", match.Identifier)
		})
	}
}

func TestBookingEarlyCheckinWindow(t *testing.T) {
	start := time.Date(2025, 3, 2, 15, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	cases := []struct {
		name string
		now  time.Time
		err  error
	}{
		{name: "59 minutes early", now: start.Add(-59 * time.Minute)},
		{name: "exactly one hour early", now: start.Add(-60 * time.Minute)},
		{name: "61 minutes early", now: start.Add(-61 * time.Minute), err: errs.ErrOutsideWindow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture(t, tc.now, 0)
			f.seedEvent(t, "4821", start, end)

			_, err := f.uc.Validate(context.Background(), "4821", testMAC, f.cfg)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBookingNotFound(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newBookingFixture(t, now, 0)
	f.seedEvent(t, "4821", now.Add(-time.Hour), now.Add(time.Hour))

	_, err := f.uc.Validate(context.Background(), "9999", testMAC, f.cfg)
	assert.ErrorIs(t, err, errs.ErrBookingNotFound)
}

func TestBookingStaleIntegrationBlocked(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// Five missed polls warn but still admit.
	f := newBookingFixture(t, now, rental.StaleBlockThreshold-1)
	f.seedEvent(t, "4821", now.Add(-time.Hour), now.Add(time.Hour))
	_, err := f.uc.Validate(context.Background(), "4821", testMAC, f.cfg)
	assert.NoError(t, err)

	// Six refuse booking-derived grants outright.
	f = newBookingFixture(t, now, rental.StaleBlockThreshold)
	f.seedEvent(t, "4821", now.Add(-time.Hour), now.Add(time.Hour))
	_, err = f.uc.Validate(context.Background(), "4821", testMAC, f.cfg)
	assert.ErrorIs(t, err, errs.ErrIntegrationUnavailable)
}

func TestBookingDuplicateSameDeviceOnly(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newBookingFixture(t, now, 0)
	f.seedEvent(t, "4821", now.Add(-time.Hour), now.Add(24*time.Hour))

	// First device gets a grant.
	rm, err := f.uc.Authorize(context.Background(), "4821", testMAC, nil, usecase.GuestActor("10.0.0.5", "c1"))
	require.NoError(t, err)
	require.NotNil(t, rm.BookingRef)
	assert.Equal(t, "4821", *rm.BookingRef)

	// Same device again is a duplicate.
	_, err = f.uc.Authorize(context.Background(), "4821", testMAC, nil, usecase.GuestActor("10.0.0.5", "c2"))
	assert.ErrorIs(t, err, errs.ErrDuplicateGrant)

	// A different device for the same booking is always allowed.
	_, err = f.uc.Authorize(context.Background(), "4821", "AA:BB:CC:DD:EE:01", nil, usecase.GuestActor("10.0.0.5", "c3"))
	assert.NoError(t, err)
}

func TestBookingGrantWindowIncludesGrace(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	f := newBookingFixture(t, now, 0)
	f.seedEvent(t, "4821", now.Add(-24*time.Hour), end)

	rm, err := f.uc.Authorize(context.Background(), "4821", testMAC, nil, usecase.GuestActor("10.0.0.5", "c1"))
	require.NoError(t, err)
	assert.Equal(t, now, rm.StartUTC)
	assert.Equal(t, end.Add(15*time.Minute), rm.EndUTC)

	// the controller authorize rides on the retry queue
	assert.Len(t, f.queueRepo.byType(usecase.OpAuthorize), 1)
}

func TestBookingCasePreservedInGrant(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newBookingFixture(t, now, 0)

	cfgName := rental.ReconstructIntegrationConfig(f.cfg.ID(), "unit1", true, rental.AttrSlotName, 15, nil, 0)
	e, err := rental.NewEvent(rental.NewEventParams{
		IntegrationID: f.cfg.ID(),
		EventIndex:    0,
		SlotName:      strptr("Jane Doe"),
		Start:         now.Add(-time.Hour),
		End:           now.Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, f.eventRepo.Upsert(context.Background(), nil, e, now))

	match, err := f.uc.Validate(context.Background(), "jane doe", testMAC, cfgName)
	require.NoError(t, err)
	// matched identifier keeps stored case for audit and the grant
	assert.Equal(t, "Jane Doe", match.Identifier)
}
