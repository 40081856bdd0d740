package usecase

import (
	"context"
	"log/slog"

	"guestgate/internal/infra/repository"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
)

const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

type AuditEntry struct {
	Actor         string
	RoleSnapshot  string
	Action        string
	TargetType    string
	TargetID      string
	Outcome       string
	CorrelationID string
	Meta          map[string]any
}

type AuditUseCase interface {
	// Record appends one entry. It is called after the operation's outcome is
	// decided and before the response is written; a failed append is logged
	// but never fails the operation it describes.
	Record(ctx context.Context, e AuditEntry)
	List(ctx context.Context, limit int) ([]*readmodel.AuditEntryRM, error)
}

type auditUseCaseImpl struct {
	repo   AuditRepository
	uow    UnitOfWork
	clock  clock.Clock
	logger *slog.Logger
}

func NewAuditUseCase(repo AuditRepository, uow UnitOfWork, clk clock.Clock, logger *slog.Logger) AuditUseCase {
	return &auditUseCaseImpl{repo: repo, uow: uow, clock: clk, logger: logger}
}

func (a *auditUseCaseImpl) Record(ctx context.Context, e AuditEntry) {
	insert := repository.AuditInsert{
		ID:            uuid.New(),
		TimestampUTC:  a.clock.Now(),
		Actor:         e.Actor,
		RoleSnapshot:  e.RoleSnapshot,
		Action:        e.Action,
		TargetType:    e.TargetType,
		TargetID:      e.TargetID,
		Outcome:       e.Outcome,
		CorrelationID: e.CorrelationID,
		Meta:          e.Meta,
	}
	if err := a.repo.Insert(ctx, a.uow.DB(), insert); err != nil {
		a.logger.Error("failed to write audit entry",
			"action", e.Action,
			"target_id", e.TargetID,
			"correlation_id", e.CorrelationID,
			"error", err)
	}
}

func (a *auditUseCaseImpl) List(ctx context.Context, limit int) ([]*readmodel.AuditEntryRM, error) {
	return a.repo.List(ctx, a.uow.DB(), limit)
}
