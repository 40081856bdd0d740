package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"guestgate/internal/domain/grant"
	"guestgate/internal/domain/voucher"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/infra/repository"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
)

// Collision retry schedule for code generation.
var collisionBackoff = []time.Duration{
	50 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
	400 * time.Millisecond,
	800 * time.Millisecond,
}

const collisionMaxAttempts = 5

// Actor identifies who performed an operation, for audit.
type Actor struct {
	Name          string
	Role          string
	CorrelationID string
}

func GuestActor(ip, correlationID string) Actor {
	return Actor{Name: "guest:" + ip, Role: "guest", CorrelationID: correlationID}
}

func SystemActor(name string) Actor {
	return Actor{Name: name, Role: "system", CorrelationID: uuid.NewString()}
}

type CreateVoucherParams struct {
	Length          int
	DurationMinutes int
	UpKbps          *int
	DownKbps        *int
	BookingRef      *string
}

type RedeemParams struct {
	Code         string
	MAC          string
	SessionToken *string
	UserInput    string
}

type VoucherUseCase interface {
	Create(ctx context.Context, params CreateVoucherParams, actor Actor) (*readmodel.VoucherRM, error)
	Redeem(ctx context.Context, params RedeemParams, actor Actor) (*readmodel.GrantRM, error)
	List(ctx context.Context) ([]*readmodel.VoucherRM, error)
}

type voucherUseCaseImpl struct {
	voucherRepo VoucherRepository
	grantRepo   GrantRepository
	queueRepo   RetryQueueRepository
	audit       AuditUseCase
	uow         UnitOfWork
	clock       clock.Clock
	codeSource  voucher.CodeSource
	logger      *slog.Logger
}

func NewVoucherUseCase(
	voucherRepo VoucherRepository,
	grantRepo GrantRepository,
	queueRepo RetryQueueRepository,
	audit AuditUseCase,
	uow UnitOfWork,
	clk clock.Clock,
	codeSource voucher.CodeSource,
	logger *slog.Logger,
) VoucherUseCase {
	return &voucherUseCaseImpl{
		voucherRepo: voucherRepo,
		grantRepo:   grantRepo,
		queueRepo:   queueRepo,
		audit:       audit,
		uow:         uow,
		clock:       clk,
		codeSource:  codeSource,
		logger:      logger,
	}
}

// Create generates a voucher, retrying on code collision with backoff until
// the schedule is exhausted.
func (u *voucherUseCaseImpl) Create(ctx context.Context, params CreateVoucherParams, actor Actor) (*readmodel.VoucherRM, error) {
	if params.Length == 0 {
		params.Length = voucher.DefaultCodeLength
	}
	if params.Length < voucher.MinCodeLength || params.Length > voucher.MaxCodeLength {
		return nil, errs.Mark(voucher.ErrInvalidCodeLength, errs.ErrInvalidInput)
	}
	if params.DurationMinutes <= 0 {
		return nil, errs.Mark(voucher.ErrInvalidDuration, errs.ErrInvalidInput)
	}

	var lastErr error
	for attempt := 0; attempt < collisionMaxAttempts; attempt++ {
		code, err := voucher.GenerateCode(params.Length, u.codeSource)
		if err != nil {
			return nil, errs.Wrap(err, "failed to generate voucher code")
		}

		v, err := voucher.NewVoucher(code, u.clock.Now(), params.DurationMinutes, params.UpKbps, params.DownKbps, params.BookingRef)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrInvalidInput)
		}

		err = u.voucherRepo.Create(ctx, u.uow.DB(), v)
		if err == nil {
			u.audit.Record(ctx, AuditEntry{
				Actor:         actor.Name,
				RoleSnapshot:  actor.Role,
				Action:        "vouchers.create",
				TargetType:    "voucher",
				TargetID:      code.String(),
				Outcome:       OutcomeSuccess,
				CorrelationID: actor.CorrelationID,
				Meta:          map[string]any{"duration_minutes": params.DurationMinutes},
			})
			return toVoucherRM(v), nil
		}

		if !infra.IsKind(err, infra.KindDuplicateKey) {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		lastErr = err
		if attempt < collisionMaxAttempts-1 {
			u.logger.Warn("voucher code collision, retrying",
				"attempt", attempt+1,
				"backoff", collisionBackoff[attempt])
			if err := sleep(ctx, collisionBackoff[attempt]); err != nil {
				return nil, err
			}
		}
	}

	return nil, errs.Mark(lastErr, errs.ErrVoucherCollision)
}

// Redeem exchanges a voucher code for a PENDING grant. Two simultaneous
// redemptions of the same (code, mac) race on the partial unique index;
// exactly one grant is created.
func (u *voucherUseCaseImpl) Redeem(ctx context.Context, params RedeemParams, actor Actor) (*readmodel.GrantRM, error) {
	now := u.clock.Now()

	var g *grant.Grant
	err := u.uow.Within(ctx, func(tx db.DBTX) error {
		v, err := u.voucherRepo.FindByCodeCI(ctx, tx, params.Code)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, errs.ErrVoucherNotFound)
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		if err := v.ValidateRedemption(now); err != nil {
			switch {
			case errors.Is(err, voucher.ErrRevoked):
				return errs.Mark(err, errs.ErrVoucherRevoked)
			default:
				return errs.Mark(err, errs.ErrVoucherExpired)
			}
		}

		code := v.Code().String()
		userInput := params.UserInput
		g, err = grant.NewGrant(grant.NewGrantParams{
			ID:            uuid.New(),
			VoucherCode:   &code,
			BookingRef:    v.BookingRef(),
			UserInputCode: &userInput,
			MAC:           params.MAC,
			SessionToken:  params.SessionToken,
			Start:         now,
			End:           now.Add(time.Duration(v.DurationMinutes()) * time.Minute),
			Now:           now,
		})
		if err != nil {
			return errs.Mark(err, errs.ErrInvalidInput)
		}

		if err := u.grantRepo.Create(ctx, tx, g); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return errs.Mark(err, errs.ErrDuplicateRedemption)
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		v.RecordRedemption(now)
		if err := u.voucherRepo.Update(ctx, tx, v); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		payload := AuthorizePayload{GrantID: g.ID(), MAC: g.MAC(), EndUTC: g.End()}
		if v.UpKbps() != nil {
			payload.UpKbps = *v.UpKbps()
		}
		if v.DownKbps() != nil {
			payload.DownKbps = *v.DownKbps()
		}
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
		Action:        "vouchers.redeem",
		TargetType:    "grant",
		TargetID:      g.ID().String(),
		Outcome:       OutcomeSuccess,
		CorrelationID: actor.CorrelationID,
		Meta:          map[string]any{"voucher_code": params.Code, "mac": g.MAC()},
	})

	return repository.ToGrantRM(g), nil
}

func (u *voucherUseCaseImpl) List(ctx context.Context) ([]*readmodel.VoucherRM, error) {
	return u.voucherRepo.List(ctx, u.uow.DB())
}

func toVoucherRM(v *voucher.Voucher) *readmodel.VoucherRM {
	return &readmodel.VoucherRM{
		Code:            v.Code().String(),
		CreatedUTC:      v.CreatedAt(),
		DurationMinutes: v.DurationMinutes(),
		ExpiresUTC:      v.ExpiresAt(),
		UpKbps:          v.UpKbps(),
		DownKbps:        v.DownKbps(),
		Status:          string(v.Status()),
		BookingRef:      v.BookingRef(),
		RedeemedCount:   v.RedeemedCount(),
		LastRedeemedUTC: v.LastRedeemedAt(),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
