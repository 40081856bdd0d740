package usecase

import (
	"context"
	"time"

	"guestgate/internal/domain/admin"
	"guestgate/internal/domain/grant"
	"guestgate/internal/domain/portalcfg"
	"guestgate/internal/domain/rental"
	"guestgate/internal/domain/voucher"
	"guestgate/internal/infra/db"
	"guestgate/internal/infra/repository"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
)

// UnitOfWork scopes repository calls: Within for transactional writes, DB for
// plain reads. The Postgres implementation lives in internal/infra/uow.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(tx db.DBTX) error) error
	DB() db.DBTX
}

// Repository ports. Implementations live in internal/infra/repository; tests
// substitute fakes.

type VoucherRepository interface {
	Create(ctx context.Context, tx db.DBTX, v *voucher.Voucher) error
	FindByCodeCI(ctx context.Context, q db.DBTX, code string) (*voucher.Voucher, error)
	Update(ctx context.Context, tx db.DBTX, v *voucher.Voucher) error
	List(ctx context.Context, q db.DBTX) ([]*readmodel.VoucherRM, error)
}

type GrantRepository interface {
	Create(ctx context.Context, tx db.DBTX, g *grant.Grant) error
	FindByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*grant.Grant, error)
	FindActiveByMAC(ctx context.Context, q db.DBTX, mac string) ([]*grant.Grant, error)
	FindNonRevoked(ctx context.Context, q db.DBTX, mac, identifier string) (*grant.Grant, error)
	Update(ctx context.Context, tx db.DBTX, g *grant.Grant) error
	ExpireSweep(ctx context.Context, tx db.DBTX, now time.Time) (int64, error)
	FindUnreconciled(ctx context.Context, q db.DBTX, before time.Time) ([]*grant.Grant, error)
	List(ctx context.Context, q db.DBTX, status string, limit int) ([]*readmodel.GrantRM, error)
}

type EventRepository interface {
	Upsert(ctx context.Context, tx db.DBTX, e *rental.Event, now time.Time) error
	FindByIntegration(ctx context.Context, q db.DBTX, integrationID uuid.UUID) ([]*rental.Event, error)
	DeleteWhereEndBefore(ctx context.Context, tx db.DBTX, cutoff time.Time) (int64, error)
}

type IntegrationRepository interface {
	Create(ctx context.Context, tx db.DBTX, ic *rental.IntegrationConfig) error
	Update(ctx context.Context, tx db.DBTX, ic *rental.IntegrationConfig) error
	Delete(ctx context.Context, tx db.DBTX, id uuid.UUID) error
	FindByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*rental.IntegrationConfig, error)
	FindEnabled(ctx context.Context, q db.DBTX) ([]*rental.IntegrationConfig, error)
	FindAll(ctx context.Context, q db.DBTX) ([]*rental.IntegrationConfig, error)
	MarkSyncSuccess(ctx context.Context, tx db.DBTX, id uuid.UUID, now time.Time) error
	IncrementStale(ctx context.Context, tx db.DBTX, id uuid.UUID) (int, error)
}

type PortalConfigRepository interface {
	Get(ctx context.Context, q db.DBTX) (*portalcfg.Config, error)
	Update(ctx context.Context, tx db.DBTX, cfg *portalcfg.Config) error
}

type AdminRepository interface {
	Create(ctx context.Context, tx db.DBTX, a *admin.Account) error
	FindByUsername(ctx context.Context, q db.DBTX, username string) (*admin.Account, error)
	UpdateLastLogin(ctx context.Context, tx db.DBTX, id uuid.UUID, now time.Time) error
	Count(ctx context.Context, q db.DBTX) (int64, error)
	List(ctx context.Context, q db.DBTX) ([]*readmodel.AdminAccountRM, error)
}

type AuditRepository interface {
	Insert(ctx context.Context, tx db.DBTX, e repository.AuditInsert) error
	List(ctx context.Context, q db.DBTX, limit int) ([]*readmodel.AuditEntryRM, error)
}

type RetryQueueRepository interface {
	Enqueue(ctx context.Context, tx db.DBTX, id uuid.UUID, opType string, payload []byte, nextAttempt time.Time) error
	DuePending(ctx context.Context, tx db.DBTX, now time.Time, limit int) ([]*readmodel.ControllerOpRM, error)
	MarkDone(ctx context.Context, tx db.DBTX, id uuid.UUID, now time.Time) error
	Reschedule(ctx context.Context, tx db.DBTX, id uuid.UUID, attempts int, nextAttempt, now time.Time) error
	MarkDead(ctx context.Context, tx db.DBTX, id uuid.UUID, attempts int, now time.Time) error
	CountPending(ctx context.Context, q db.DBTX) (int64, error)
}
