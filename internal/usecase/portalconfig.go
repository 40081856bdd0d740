package usecase

import (
	"context"

	"guestgate/internal/domain/portalcfg"
	"guestgate/internal/infra/db"
	"guestgate/internal/infra/repository"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase/readmodel"
)

type PortalConfigParams struct {
	RateLimitAttempts      int
	RateLimitWindowSeconds int
	SuccessRedirectURL     string
	VoucherLengthDefault   int
}

type PortalConfigUseCase interface {
	Get(ctx context.Context) (*readmodel.PortalConfigRM, error)
	Update(ctx context.Context, params PortalConfigParams, actor Actor) (*readmodel.PortalConfigRM, error)
}

type portalConfigUseCaseImpl struct {
	repo  PortalConfigRepository
	audit AuditUseCase
	uow   UnitOfWork
}

func NewPortalConfigUseCase(repo PortalConfigRepository, audit AuditUseCase, uow UnitOfWork) PortalConfigUseCase {
	return &portalConfigUseCaseImpl{repo: repo, audit: audit, uow: uow}
}

func (u *portalConfigUseCaseImpl) Get(ctx context.Context) (*readmodel.PortalConfigRM, error) {
	cfg, err := u.repo.Get(ctx, u.uow.DB())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return repository.ToPortalConfigRM(cfg), nil
}

func (u *portalConfigUseCaseImpl) Update(ctx context.Context, params PortalConfigParams, actor Actor) (*readmodel.PortalConfigRM, error) {
	cfg, err := portalcfg.NewConfig(params.RateLimitAttempts, params.RateLimitWindowSeconds,
		params.SuccessRedirectURL, params.VoucherLengthDefault)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInput)
	}

	err = u.uow.Within(ctx, func(tx db.DBTX) error {
		return u.repo.Update(ctx, tx, cfg)
	})
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	u.audit.Record(ctx, AuditEntry{
		Actor:         actor.Name,
		RoleSnapshot:  actor.Role,
		Action:        "portal_config.update",
		TargetType:    "portal_config",
		TargetID:      "singleton",
		Outcome:       OutcomeSuccess,
		CorrelationID: actor.CorrelationID,
	})

	return repository.ToPortalConfigRM(cfg), nil
}
