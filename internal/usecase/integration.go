package usecase

import (
	"context"

	"guestgate/internal/domain/rental"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/infra/repository"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type IntegrationParams struct {
	IntegrationID string
	Enabled       bool
	AuthAttribute string
	GraceMinutes  int
}

type IntegrationUseCase interface {
	Create(ctx context.Context, params IntegrationParams, actor Actor) (*readmodel.IntegrationRM, error)
	Update(ctx context.Context, id uuid.UUID, params IntegrationParams, actor Actor) (*readmodel.IntegrationRM, error)
	Delete(ctx context.Context, id uuid.UUID, actor Actor) error
	List(ctx context.Context) ([]*readmodel.IntegrationRM, error)
}

type integrationUseCaseImpl struct {
	repo  IntegrationRepository
	audit AuditUseCase
	uow   UnitOfWork
}

func NewIntegrationUseCase(repo IntegrationRepository, audit AuditUseCase, uow UnitOfWork) IntegrationUseCase {
	return &integrationUseCaseImpl{repo: repo, audit: audit, uow: uow}
}

func (u *integrationUseCaseImpl) Create(ctx context.Context, params IntegrationParams, actor Actor) (*readmodel.IntegrationRM, error) {
	ic, err := rental.NewIntegrationConfig(uuid.New(), params.IntegrationID, params.Enabled,
		rental.AuthAttribute(params.AuthAttribute), params.GraceMinutes)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInput)
	}

	err = u.uow.Within(ctx, func(tx db.DBTX) error {
		return u.repo.Create(ctx, tx, ic)
	})
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return nil, errs.Mark(err, errs.ErrConflict)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	u.audit.Record(ctx, AuditEntry{
		Actor:         actor.Name,
		RoleSnapshot:  actor.Role,
		Action:        "integrations.create",
		TargetType:    "integration",
		TargetID:      ic.ID().String(),
		Outcome:       OutcomeSuccess,
		CorrelationID: actor.CorrelationID,
		Meta:          map[string]any{"integration_id": params.IntegrationID},
	})

	return repository.ToIntegrationRM(ic), nil
}

func (u *integrationUseCaseImpl) Update(ctx context.Context, id uuid.UUID, params IntegrationParams, actor Actor) (*readmodel.IntegrationRM, error) {
	existing, err := u.repo.FindByID(ctx, u.uow.DB(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrIntegrationNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	updated, err := rental.NewIntegrationConfig(existing.ID(), params.IntegrationID, params.Enabled,
		rental.AuthAttribute(params.AuthAttribute), params.GraceMinutes)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInput)
	}

	err = u.uow.Within(ctx, func(tx db.DBTX) error {
		return u.repo.Update(ctx, tx, updated)
	})
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	u.audit.Record(ctx, AuditEntry{
		Actor:         actor.Name,
		RoleSnapshot:  actor.Role,
		Action:        "integrations.update",
		TargetType:    "integration",
		TargetID:      id.String(),
		Outcome:       OutcomeSuccess,
		CorrelationID: actor.CorrelationID,
	})

	return repository.ToIntegrationRM(updated), nil
}

func (u *integrationUseCaseImpl) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	err := u.uow.Within(ctx, func(tx db.DBTX) error {
		return u.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, errs.ErrIntegrationNotFound)
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	u.audit.Record(ctx, AuditEntry{
		Actor:         actor.Name,
		RoleSnapshot:  actor.Role,
		Action:        "integrations.delete",
		TargetType:    "integration",
		TargetID:      id.String(),
		Outcome:       OutcomeSuccess,
		CorrelationID: actor.CorrelationID,
	})
	return nil
}

func (u *integrationUseCaseImpl) List(ctx context.Context) ([]*readmodel.IntegrationRM, error) {
	configs, err := u.repo.FindAll(ctx, u.uow.DB())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	result := make([]*readmodel.IntegrationRM, 0, len(configs))
	for _, ic := range configs {
		result = append(result, repository.ToIntegrationRM(ic))
	}
	return result, nil
}
