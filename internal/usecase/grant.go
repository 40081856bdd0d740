package usecase

import (
	"context"
	"log/slog"
	"time"

	"guestgate/internal/domain/grant"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/infra/repository"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
)

// How long a session-token grant may wait for its MAC before being revoked.
const macReconcileDeadline = 30 * time.Second

type CreateGrantParams struct {
	VoucherCode   *string
	BookingRef    *string
	IntegrationID *uuid.UUID
	UserInputCode *string
	MAC           string
	SessionToken  *string
	Start         time.Time
	End           time.Time
}

type GrantUseCase interface {
	Create(ctx context.Context, params CreateGrantParams, actor Actor) (*readmodel.GrantRM, error)
	Extend(ctx context.Context, grantID uuid.UUID, minutes int, actor Actor) (*readmodel.GrantRM, error)
	Revoke(ctx context.Context, grantID uuid.UUID, reason string, actor Actor) (*readmodel.GrantRM, error)
	Get(ctx context.Context, grantID uuid.UUID) (*readmodel.GrantRM, error)
	List(ctx context.Context, status string, limit int) ([]*readmodel.GrantRM, error)
	// MarkControllerAck records the controller grant id after a successful
	// authorize and moves a PENDING grant to ACTIVE.
	MarkControllerAck(ctx context.Context, grantID uuid.UUID, controllerGrantID string) error
	// ExpireSweep transitions ACTIVE grants whose window closed to EXPIRED.
	ExpireSweep(ctx context.Context) (int64, error)
	// RevokeUnreconciled revokes session-token grants whose MAC never arrived.
	RevokeUnreconciled(ctx context.Context) (int, error)
}

type grantUseCaseImpl struct {
	grantRepo GrantRepository
	queueRepo RetryQueueRepository
	audit     AuditUseCase
	uow       UnitOfWork
	clock     clock.Clock
	logger    *slog.Logger
}

func NewGrantUseCase(
	grantRepo GrantRepository,
	queueRepo RetryQueueRepository,
	audit AuditUseCase,
	uow UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
) GrantUseCase {
	return &grantUseCaseImpl{
		grantRepo: grantRepo,
		queueRepo: queueRepo,
		audit:     audit,
		uow:       uow,
		clock:     clk,
		logger:    logger,
	}
}

func (u *grantUseCaseImpl) Create(ctx context.Context, params CreateGrantParams, actor Actor) (*readmodel.GrantRM, error) {
	now := u.clock.Now()

	var g *grant.Grant
	err := u.uow.Within(ctx, func(tx db.DBTX) error {
		var err error
		g, err = grant.NewGrant(grant.NewGrantParams{
			ID:            uuid.New(),
			VoucherCode:   params.VoucherCode,
			BookingRef:    params.BookingRef,
			IntegrationID: params.IntegrationID,
			UserInputCode: params.UserInputCode,
			MAC:           params.MAC,
			SessionToken:  params.SessionToken,
			Start:         params.Start,
			End:           params.End,
			Now:           now,
		})
		if err != nil {
			return errs.Mark(err, errs.ErrInvalidInput)
		}

		if err := u.grantRepo.Create(ctx, tx, g); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return errs.Mark(err, errs.ErrDuplicateGrant)
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		payload := AuthorizePayload{GrantID: g.ID(), MAC: g.MAC(), EndUTC: g.End()}
		if err := enqueueOp(ctx, u.queueRepo, tx, OpAuthorize, payload, now); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.audit.Record(ctx, AuditEntry{
		Actor:         actor.Name,
		RoleSnapshot:  actor.Role,
		Action:        "grants.create",
		TargetType:    "grant",
		TargetID:      g.ID().String(),
		Outcome:       OutcomeSuccess,
		CorrelationID: actor.CorrelationID,
		Meta:          map[string]any{"mac": g.MAC(), "identifier": g.Identifier()},
	})

	return repository.ToGrantRM(g), nil
}

func (u *grantUseCaseImpl) Extend(ctx context.Context, grantID uuid.UUID, minutes int, actor Actor) (*readmodel.GrantRM, error) {
	now := u.clock.Now()

	var g *grant.Grant
	err := u.uow.Within(ctx, func(tx db.DBTX) error {
		var err error
		g, err = u.loadGrant(ctx, tx, grantID)
		if err != nil {
			return err
		}

		if err := g.Extend(minutes, now); err != nil {
			if err == grant.ErrRevokedNotExtensible {
				return errs.Mark(err, errs.ErrGrantOperation)
			}
			return errs.Mark(err, errs.ErrInvalidInput)
		}

		if err := u.grantRepo.Update(ctx, tx, g); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		payload := ExtendPayload{GrantID: g.ID(), MAC: g.MAC(), EndUTC: g.End()}
		if err := enqueueOp(ctx, u.queueRepo, tx, OpExtend, payload, now); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.audit.Record(ctx, AuditEntry{
		Actor:         actor.Name,
		RoleSnapshot:  actor.Role,
		Action:        "grants.extend",
		TargetType:    "grant",
		TargetID:      g.ID().String(),
		Outcome:       OutcomeSuccess,
		CorrelationID: actor.CorrelationID,
		Meta:          map[string]any{"minutes": minutes, "new_end_utc": g.End()},
	})

	return repository.ToGrantRM(g), nil
}

// Revoke is idempotent: revoking a revoked grant reports success and changes
// nothing, and enqueues no controller work.
func (u *grantUseCaseImpl) Revoke(ctx context.Context, grantID uuid.UUID, reason string, actor Actor) (*readmodel.GrantRM, error) {
	now := u.clock.Now()

	var (
		g       *grant.Grant
		changed bool
	)
	err := u.uow.Within(ctx, func(tx db.DBTX) error {
		var err error
		g, err = u.loadGrant(ctx, tx, grantID)
		if err != nil {
			return err
		}

		changed = g.Revoke(now)
		if !changed {
			return nil
		}

		if err := u.grantRepo.Update(ctx, tx, g); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		payload := RevokePayload{GrantID: g.ID(), MAC: g.MAC()}
		if err := enqueueOp(ctx, u.queueRepo, tx, OpRevoke, payload, now); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		u.audit.Record(ctx, AuditEntry{
			Actor:         actor.Name,
			RoleSnapshot:  actor.Role,
			Action:        "grants.revoke",
			TargetType:    "grant",
			TargetID:      g.ID().String(),
			Outcome:       OutcomeSuccess,
			CorrelationID: actor.CorrelationID,
			Meta:          map[string]any{"reason": reason},
		})
	}

	return repository.ToGrantRM(g), nil
}

func (u *grantUseCaseImpl) Get(ctx context.Context, grantID uuid.UUID) (*readmodel.GrantRM, error) {
	g, err := u.loadGrant(ctx, u.uow.DB(), grantID)
	if err != nil {
		return nil, err
	}
	return repository.ToGrantRM(g), nil
}

func (u *grantUseCaseImpl) List(ctx context.Context, status string, limit int) ([]*readmodel.GrantRM, error) {
	return u.grantRepo.List(ctx, u.uow.DB(), status, limit)
}

func (u *grantUseCaseImpl) MarkControllerAck(ctx context.Context, grantID uuid.UUID, controllerGrantID string) error {
	now := u.clock.Now()
	return u.uow.Within(ctx, func(tx db.DBTX) error {
		g, err := u.loadGrant(ctx, tx, grantID)
		if err != nil {
			return err
		}
		g.Activate(controllerGrantID, now)
		if err := u.grantRepo.Update(ctx, tx, g); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
}

func (u *grantUseCaseImpl) ExpireSweep(ctx context.Context) (int64, error) {
	now := u.clock.Now()
	var swept int64
	err := u.uow.Within(ctx, func(tx db.DBTX) error {
		var err error
		swept, err = u.grantRepo.ExpireSweep(ctx, tx, now)
		return err
	})
	return swept, err
}

func (u *grantUseCaseImpl) RevokeUnreconciled(ctx context.Context) (int, error) {
	now := u.clock.Now()
	cutoff := now.Add(-macReconcileDeadline)

	stale, err := u.grantRepo.FindUnreconciled(ctx, u.uow.DB(), cutoff)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	revoked := 0
	actor := SystemActor("mac-reconciler")
	for _, g := range stale {
		if _, err := u.Revoke(ctx, g.ID(), "mac never reconciled", actor); err != nil {
			u.logger.Error("failed to revoke unreconciled grant", "grant_id", g.ID(), "error", err)
			continue
		}
		revoked++
	}
	return revoked, nil
}

func (u *grantUseCaseImpl) loadGrant(ctx context.Context, q db.DBTX, grantID uuid.UUID) (*grant.Grant, error) {
	g, err := u.grantRepo.FindByID(ctx, q, grantID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrGrantNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return g, nil
}
