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

func TestDetectCodeType(t *testing.T) {
	cases := []struct {
		in   string
		want usecase.CodeType
	}{
		{"ABCD123456", usecase.CodeTypeVoucher},
		{"abcd123456", usecase.CodeTypeVoucher},
		{"A1B2", usecase.CodeTypeVoucher},
		{"4821", usecase.CodeTypeBooking},        // numeric-only reads as slot code
		{"123456789", usecase.CodeTypeBooking},
		{"Jane Doe", usecase.CodeTypeBooking},    // spaces read as guest name
		{"smith-jones", usecase.CodeTypeBooking},
		{"", usecase.CodeTypeInvalid},
		{"   ", usecase.CodeTypeInvalid},
		{"ABC", usecase.CodeTypeInvalid},
		{"ABCDEFGHIJKLMNOPQRSTUVWXY", usecase.CodeTypeInvalid}, // 25 chars
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, usecase.DetectCodeType(tc.in), "input %q", tc.in)
	}
}

type unifiedFixture struct {
	uc          usecase.GuestAuthUseCase
	voucherRepo *fakeVoucherRepo
	grantRepo   *fakeGrantRepo
	eventRepo   *fakeEventRepo
	cfg         *rental.IntegrationConfig
}

func newUnifiedFixture(t *testing.T, now time.Time) *unifiedFixture {
	t.Helper()

	voucherRepo := newFakeVoucherRepo()
	grantRepo := newFakeGrantRepo()
	queueRepo := &fakeQueueRepo{}
	audit := &fakeAudit{}
	clk := clock.NewMockClock(now)
	cfg := rental.ReconstructIntegrationConfig(uuid.New(), "unit1", true, rental.AttrSlotCode, 15, nil, 0)
	integrationRepo := newFakeIntegrationRepo(cfg)
	eventRepo := newFakeEventRepo()

	grants := usecase.NewGrantUseCase(grantRepo, queueRepo, audit, fakeUOW{}, clk, discardLogger())
	bookings := usecase.NewBookingUseCase(eventRepo, integrationRepo, grantRepo, grants, fakeUOW{}, clk, discardLogger())
	vouchers := usecase.NewVoucherUseCase(voucherRepo, grantRepo, queueRepo, audit, fakeUOW{}, clk, fixedSource{}, discardLogger())
	uc := usecase.NewGuestAuthUseCase(vouchers, bookings, discardLogger())

	return &unifiedFixture{uc: uc, voucherRepo: voucherRepo, grantRepo: grantRepo, eventRepo: eventRepo, cfg: cfg}
}

func (f *unifiedFixture) seedEvent(t *testing.T, slotCode, slotName string, start, end time.Time) {
	t.Helper()
	params := rental.NewEventParams{
		IntegrationID: f.cfg.ID(),
		EventIndex:    0,
		Start:         start,
		End:           end,
	}
	if slotCode != "" {
		params.SlotCode = strptr(slotCode)
	}
	if slotName != "" {
		params.SlotName = strptr(slotName)
	}
	e, err := rental.NewEvent(params)
	require.NoError(t, err)
	require.NoError(t, f.eventRepo.Upsert(context.Background(), nil, e, start))
}

func TestUnifiedVoucherPath(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newUnifiedFixture(t, now)
	seedVoucher(t, f.voucherRepo, "ABCD123456", now.Add(-time.Hour), 120)

	rm, err := f.uc.Authorize(context.Background(), usecase.GuestAuthInput{
		Code: "abcd123456", MAC: testMAC, ClientIP: "10.0.0.5",
	}, "corr-1")
	require.NoError(t, err)
	require.NotNil(t, rm.VoucherCode)
	assert.Equal(t, "ABCD123456", *rm.VoucherCode)
}

func TestUnifiedInvalidCode(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newUnifiedFixture(t, now)

	_, err := f.uc.Authorize(context.Background(), usecase.GuestAuthInput{
		Code: "ab", MAC: testMAC, ClientIP: "10.0.0.5",
	}, "corr-1")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestUnifiedNumericGoesToBooking(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newUnifiedFixture(t, now)
	f.seedEvent(t, "4821", "", now.Add(-time.Hour), now.Add(24*time.Hour))

	rm, err := f.uc.Authorize(context.Background(), usecase.GuestAuthInput{
		Code: "4821", MAC: testMAC, ClientIP: "10.0.0.5",
	}, "corr-1")
	require.NoError(t, err)
	require.NotNil(t, rm.BookingRef)
	assert.Equal(t, "4821", *rm.BookingRef)
	assert.Nil(t, rm.VoucherCode)
}

func TestUnifiedVoucherShapedBookingName(t *testing.T) {
	// A guest name that happens to satisfy the voucher charset still resolves
	// via the booking path when no such voucher exists.
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newUnifiedFixture(t, now)
	f.seedEvent(t, "", "SMITH42", now.Add(-time.Hour), now.Add(24*time.Hour))

	rm, err := f.uc.Authorize(context.Background(), usecase.GuestAuthInput{
		Code: "smith42", MAC: testMAC, ClientIP: "10.0.0.5",
	}, "corr-1")
	require.NoError(t, err)
	require.NotNil(t, rm.BookingRef)
	assert.Equal(t, "SMITH42", *rm.BookingRef)
}

func TestUnifiedBookingWinsAmbiguity(t *testing.T) {
	// Same token is a live voucher AND a booking identifier: booking wins.
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newUnifiedFixture(t, now)
	seedVoucher(t, f.voucherRepo, "SMITH42XX", now.Add(-time.Hour), 120)
	f.seedEvent(t, "", "SMITH42XX", now.Add(-time.Hour), now.Add(24*time.Hour))

	rm, err := f.uc.Authorize(context.Background(), usecase.GuestAuthInput{
		Code: "SMITH42XX", MAC: testMAC, ClientIP: "10.0.0.5",
	}, "corr-1")
	require.NoError(t, err)
	require.NotNil(t, rm.BookingRef)
	assert.Equal(t, "SMITH42XX", *rm.BookingRef)
}

func TestUnifiedUnknownEverywhere(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newUnifiedFixture(t, now)

	_, err := f.uc.Authorize(context.Background(), usecase.GuestAuthInput{
		Code: "NOPE1234", MAC: testMAC, ClientIP: "10.0.0.5",
	}, "corr-1")
	assert.ErrorIs(t, err, errs.ErrBookingNotFound)
}
