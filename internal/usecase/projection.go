package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"guestgate/internal/domain/rental"
	"guestgate/internal/infra/db"
	"guestgate/internal/infra/reservation"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/errs"

	"github.com/google/uuid"
)

// Event indexes fetched per integration; 0 is current/outgoing, 1 incoming.
const polledEventCount = 3

// ReservationSource abstracts the upstream states API for the projector.
type ReservationSource interface {
	GetEntityState(ctx context.Context, entityID string) (*reservation.EntityState, error)
}

// ProjectionUseCase turns reservation-source entity states into cached
// rental events and keeps per-integration staleness bookkeeping.
type ProjectionUseCase interface {
	// PollAll fetches and projects events for every enabled integration.
	// Per-integration failures bump that integration's stale counter without
	// failing the batch.
	PollAll(ctx context.Context) error
	// CleanupExpired deletes events past retention and returns the count.
	CleanupExpired(ctx context.Context, retentionDays int) (int64, error)
}

// pollBackoff tracks per-integration consecutive failures. On error the next
// attempt is delayed min(60*2^errors, 300) seconds; success resumes the
// normal cadence.
type pollBackoff struct {
	consecutiveErrors int
	nextAttempt       time.Time
}

const (
	pollBackoffBase = 60 * time.Second
	pollBackoffMax  = 300 * time.Second
)

type projectionUseCaseImpl struct {
	source          ReservationSource
	eventRepo       EventRepository
	integrationRepo IntegrationRepository
	audit           AuditUseCase
	uow             UnitOfWork
	clock           clock.Clock
	logger          *slog.Logger

	mu      sync.Mutex
	backoff map[uuid.UUID]*pollBackoff
}

func NewProjectionUseCase(
	source ReservationSource,
	eventRepo EventRepository,
	integrationRepo IntegrationRepository,
	audit AuditUseCase,
	uow UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
) ProjectionUseCase {
	return &projectionUseCaseImpl{
		source:          source,
		eventRepo:       eventRepo,
		integrationRepo: integrationRepo,
		audit:           audit,
		uow:             uow,
		clock:           clk,
		logger:          logger,
		backoff:         make(map[uuid.UUID]*pollBackoff),
	}
}

func (u *projectionUseCaseImpl) shouldSkip(id uuid.UUID, now time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	state, ok := u.backoff[id]
	return ok && now.Before(state.nextAttempt)
}

func (u *projectionUseCaseImpl) recordFailure(id uuid.UUID, now time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	state, ok := u.backoff[id]
	if !ok {
		state = &pollBackoff{}
		u.backoff[id] = state
	}
	delay := pollBackoffBase << state.consecutiveErrors
	if delay > pollBackoffMax {
		delay = pollBackoffMax
	}
	state.consecutiveErrors++
	state.nextAttempt = now.Add(delay)
}

func (u *projectionUseCaseImpl) recordSuccess(id uuid.UUID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.backoff, id)
}

func (u *projectionUseCaseImpl) PollAll(ctx context.Context) error {
	integrations, err := u.integrationRepo.FindEnabled(ctx, u.uow.DB())
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	for _, integration := range integrations {
		if u.shouldSkip(integration.ID(), u.clock.Now()) {
			continue
		}
		if err := u.pollIntegration(ctx, integration); err != nil {
			u.recordFailure(integration.ID(), u.clock.Now())
			staleCount, incErr := u.integrationRepo.IncrementStale(ctx, u.uow.DB(), integration.ID())
			if incErr != nil {
				u.logger.Error("failed to record missed poll",
					"integration_id", integration.IntegrationID(), "error", incErr)
				continue
			}
			logArgs := []any{
				"integration_id", integration.IntegrationID(),
				"stale_count", staleCount,
				"error", err,
			}
			switch {
			case staleCount >= rental.StaleBlockThreshold:
				u.logger.Error("integration unavailable; booking authorization blocked", logArgs...)
			case staleCount >= rental.StaleWarnThreshold:
				u.logger.Warn("integration stale", logArgs...)
			default:
				u.logger.Warn("reservation poll failed", logArgs...)
			}
			continue
		}

		u.recordSuccess(integration.ID())
		if err := u.integrationRepo.MarkSyncSuccess(ctx, u.uow.DB(), integration.ID(), u.clock.Now()); err != nil {
			u.logger.Error("failed to mark sync success",
				"integration_id", integration.IntegrationID(), "error", err)
		}
	}
	return nil
}

func (u *projectionUseCaseImpl) pollIntegration(ctx context.Context, integration *rental.IntegrationConfig) error {
	now := u.clock.Now()

	for idx := 0; idx < polledEventCount; idx++ {
		entityID := eventEntityID(integration.IntegrationID(), idx)
		state, err := u.source.GetEntityState(ctx, entityID)
		if err != nil {
			return err
		}
		if state == nil {
			// Entity absent: fewer bookings than slots. Not an error.
			continue
		}

		event, err := projectEvent(integration.ID(), idx, state)
		if err != nil {
			u.logger.Warn("skipping unprojectable event",
				"integration_id", integration.IntegrationID(),
				"event_index", idx,
				"reason", err)
			continue
		}

		err = u.uow.Within(ctx, func(tx db.DBTX) error {
			return u.eventRepo.Upsert(ctx, tx, event, now)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func eventEntityID(integrationID string, index int) string {
	return fmt.Sprintf("sensor.rental_control_%s_event_%d", integrationID, index)
}

// projectEvent extracts the recognized attributes and preserves the full bag
// for forensics.
func projectEvent(integrationPK uuid.UUID, index int, state *reservation.EntityState) (*rental.Event, error) {
	start, err := attrTime(state.Attributes, "start")
	if err != nil {
		return nil, err
	}
	end, err := attrTime(state.Attributes, "end")
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(state.Attributes)
	if err != nil {
		return nil, errs.Wrap(err, "failed to preserve raw attributes")
	}

	return rental.NewEvent(rental.NewEventParams{
		IntegrationID: integrationPK,
		EventIndex:    index,
		SlotName:      attrString(state.Attributes, "slot_name"),
		SlotCode:      attrString(state.Attributes, "slot_code"),
		LastFour:      attrString(state.Attributes, "last_four"),
		Start:         start,
		End:           end,
		RawAttributes: raw,
	})
}

func attrString(attrs map[string]json.RawMessage, key string) *string {
	raw, ok := attrs[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func attrTime(attrs map[string]json.RawMessage, key string) (time.Time, error) {
	s := attrString(attrs, key)
	if s == nil {
		return time.Time{}, errs.Newf("attribute %q missing", key)
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return time.Time{}, errs.Wrap(err, "unparseable timestamp in attribute "+key)
	}
	return t.UTC(), nil
}

func (u *projectionUseCaseImpl) CleanupExpired(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := u.clock.Now().AddDate(0, 0, -retentionDays)

	var deleted int64
	err := u.uow.Within(ctx, func(tx db.DBTX) error {
		var err error
		deleted, err = u.eventRepo.DeleteWhereEndBefore(ctx, tx, cutoff)
		return err
	})
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if deleted > 0 {
		actor := SystemActor("retention-cleaner")
		u.audit.Record(ctx, AuditEntry{
			Actor:         actor.Name,
			RoleSnapshot:  actor.Role,
			Action:        "events.cleanup",
			TargetType:    "rental_event",
			TargetID:      "*",
			Outcome:       OutcomeSuccess,
			CorrelationID: actor.CorrelationID,
			Meta:          map[string]any{"deleted": deleted, "cutoff_utc": cutoff},
		})
	}
	return deleted, nil
}
