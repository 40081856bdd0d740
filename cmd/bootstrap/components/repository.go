package components

import (
	"guestgate/internal/infra/repository"
	"guestgate/internal/infra/uow"
	"guestgate/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		func(pool *pgxpool.Pool) usecase.UnitOfWork { return uow.NewPostgresUnitOfWork(pool) },
		func(pool *pgxpool.Pool) usecase.VoucherRepository { return repository.NewVoucherRepository(pool) },
		func(pool *pgxpool.Pool) usecase.GrantRepository { return repository.NewGrantRepository(pool) },
		func(pool *pgxpool.Pool) usecase.EventRepository { return repository.NewEventRepository(pool) },
		func(pool *pgxpool.Pool) usecase.IntegrationRepository { return repository.NewIntegrationRepository(pool) },
		func(pool *pgxpool.Pool) usecase.PortalConfigRepository { return repository.NewPortalConfigRepository(pool) },
		func(pool *pgxpool.Pool) usecase.AdminRepository { return repository.NewAdminRepository(pool) },
		func(pool *pgxpool.Pool) usecase.AuditRepository { return repository.NewAuditRepository(pool) },
		func(pool *pgxpool.Pool) usecase.RetryQueueRepository { return repository.NewRetryQueueRepository(pool) },
	),
)
