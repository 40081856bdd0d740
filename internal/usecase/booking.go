package usecase

import (
	"context"
	"log/slog"
	"time"

	"guestgate/internal/domain/rental"
	"guestgate/internal/infra"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase/readmodel"
)

// Guests may check in up to an hour before the booked start.
const earlyCheckinWindow = 60 * time.Minute

// BookingMatch is a validated booking lookup: the event plus the identifier
// in its stored (original) case.
type BookingMatch struct {
	Event       *rental.Event
	Integration *rental.IntegrationConfig
	Identifier  string
}

type BookingUseCase interface {
	// Validate resolves a guest-entered code against one integration's cached
	// events: case-insensitive match, stale gate, window-with-grace check,
	// same-device duplicate detection.
	Validate(ctx context.Context, input, mac string, integration *rental.IntegrationConfig) (*BookingMatch, error)
	// Authorize walks enabled integrations, validates, and creates the grant.
	Authorize(ctx context.Context, input, mac string, sessionToken *string, actor Actor) (*readmodel.GrantRM, error)
	// Lookup reports whether any enabled integration has a matching event,
	// without side effects. The unified dispatcher uses it to break
	// voucher/booking ambiguity.
	Lookup(ctx context.Context, input string) (bool, error)
}

type bookingUseCaseImpl struct {
	eventRepo       EventRepository
	integrationRepo IntegrationRepository
	grantRepo       GrantRepository
	grants          GrantUseCase
	uow             UnitOfWork
	clock           clock.Clock
	logger          *slog.Logger
}

func NewBookingUseCase(
	eventRepo EventRepository,
	integrationRepo IntegrationRepository,
	grantRepo GrantRepository,
	grants GrantUseCase,
	uow UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
) BookingUseCase {
	return &bookingUseCaseImpl{
		eventRepo:       eventRepo,
		integrationRepo: integrationRepo,
		grantRepo:       grantRepo,
		grants:          grants,
		uow:             uow,
		clock:           clk,
		logger:          logger,
	}
}

func (u *bookingUseCaseImpl) Validate(ctx context.Context, input, mac string, integration *rental.IntegrationConfig) (*BookingMatch, error) {
	events, err := u.eventRepo.FindByIntegration(ctx, u.uow.DB(), integration.ID())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	var (
		matched    *rental.Event
		identifier string
	)
	for _, e := range events {
		if id, ok := e.Matches(input, integration.AuthAttribute()); ok {
			matched = e
			identifier = id
			break
		}
	}
	if matched == nil {
		return nil, errs.ErrBookingNotFound
	}

	// A match against a dead integration is refused rather than trusted; the
	// cache may be describing a stay that no longer exists.
	if integration.Blocked() {
		return nil, errs.ErrIntegrationUnavailable
	}

	now := u.clock.Now()
	grace := time.Duration(integration.GraceMinutes()) * time.Minute
	windowStart := matched.Start().Add(-earlyCheckinWindow)
	windowEnd := matched.End().Add(grace)
	if now.Before(windowStart) || now.After(windowEnd) {
		return nil, errs.ErrOutsideWindow
	}

	// Duplicates are only detected per device; different devices on the same
	// booking are always allowed.
	if mac != "" {
		_, err := u.grantRepo.FindNonRevoked(ctx, u.uow.DB(), mac, identifier)
		if err == nil {
			return nil, errs.ErrDuplicateGrant
		}
		if !infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
	}

	return &BookingMatch{Event: matched, Integration: integration, Identifier: identifier}, nil
}

func (u *bookingUseCaseImpl) Authorize(ctx context.Context, input, mac string, sessionToken *string, actor Actor) (*readmodel.GrantRM, error) {
	integrations, err := u.integrationRepo.FindEnabled(ctx, u.uow.DB())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if len(integrations) == 0 {
		return nil, errs.ErrBookingNotFound
	}

	// Try integrations until one matches; remember the most specific failure
	// so "right code, wrong time" is not reported as not-found.
	finalErr := error(errs.ErrBookingNotFound)
	for _, integration := range integrations {
		match, err := u.Validate(ctx, input, mac, integration)
		if err != nil {
			if err != errs.ErrBookingNotFound {
				finalErr = err
			}
			continue
		}

		now := u.clock.Now()
		grace := time.Duration(match.Integration.GraceMinutes()) * time.Minute
		integrationID := match.Integration.ID()
		identifier := match.Identifier
		userInput := input
		return u.grants.Create(ctx, CreateGrantParams{
			BookingRef:    &identifier,
			IntegrationID: &integrationID,
			UserInputCode: &userInput,
			MAC:           mac,
			SessionToken:  sessionToken,
			Start:         now,
			End:           match.Event.End().Add(grace),
		}, actor)
	}

	return nil, finalErr
}

func (u *bookingUseCaseImpl) Lookup(ctx context.Context, input string) (bool, error) {
	integrations, err := u.integrationRepo.FindEnabled(ctx, u.uow.DB())
	if err != nil {
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	for _, integration := range integrations {
		events, err := u.eventRepo.FindByIntegration(ctx, u.uow.DB(), integration.ID())
		if err != nil {
			return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		for _, e := range events {
			if _, ok := e.Matches(input, integration.AuthAttribute()); ok {
				return true, nil
			}
		}
	}
	return false, nil
}
