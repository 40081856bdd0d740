package usecase

import (
	"context"
	"log/slog"

	"guestgate/internal/domain/admin"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/pkg/jwt"
	"guestgate/internal/pkg/password"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type LoginResult struct {
	Token   string
	Account *readmodel.AdminAccountRM
}

type AuthUseCase interface {
	Login(ctx context.Context, username, pass, correlationID string) (*LoginResult, error)
	// CreateAccount provisions a new administrator. RBAC has already been
	// enforced at the middleware by the time this runs.
	CreateAccount(ctx context.Context, username, pass string, role admin.Role, actor Actor) (*readmodel.AdminAccountRM, error)
	ListAccounts(ctx context.Context) ([]*readmodel.AdminAccountRM, error)
	// BootstrapInitialAdmin creates the first admin account from config when
	// the table is empty.
	BootstrapInitialAdmin(ctx context.Context, username, pass string) error
}

type authUseCaseImpl struct {
	adminRepo AdminRepository
	audit     AuditUseCase
	jwtSvc    *jwt.Service
	uow       UnitOfWork
	clock     clock.Clock
	logger    *slog.Logger
}

func NewAuthUseCase(
	adminRepo AdminRepository,
	audit AuditUseCase,
	jwtSvc *jwt.Service,
	uow UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
) AuthUseCase {
	return &authUseCaseImpl{
		adminRepo: adminRepo,
		audit:     audit,
		jwtSvc:    jwtSvc,
		uow:       uow,
		clock:     clk,
		logger:    logger,
	}
}

func (u *authUseCaseImpl) Login(ctx context.Context, username, pass, correlationID string) (*LoginResult, error) {
	account, err := u.adminRepo.FindByUsername(ctx, u.uow.DB(), username)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			// Same error as a bad password so usernames cannot be probed.
			return nil, errs.Mark(err, errs.ErrUnauthorized)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if err := password.ComparePassword(account.PasswordHash(), pass); err != nil {
		u.audit.Record(ctx, AuditEntry{
			Actor:         username,
			RoleSnapshot:  account.Role().String(),
			Action:        "admin.login",
			TargetType:    "admin_account",
			TargetID:      account.ID().String(),
			Outcome:       OutcomeDenied,
			CorrelationID: correlationID,
		})
		return nil, errs.Mark(err, errs.ErrUnauthorized)
	}

	token, err := u.jwtSvc.GenerateToken(account.ID(), account.Username(), account.Role())
	if err != nil {
		return nil, errs.Wrap(err, "failed to issue session token")
	}

	now := u.clock.Now()
	err = u.uow.Within(ctx, func(tx db.DBTX) error {
		return u.adminRepo.UpdateLastLogin(ctx, tx, account.ID(), now)
	})
	if err != nil {
		u.logger.Warn("failed to update last login", "username", username, "error", err)
	}

	u.audit.Record(ctx, AuditEntry{
		Actor:         username,
		RoleSnapshot:  account.Role().String(),
		Action:        "admin.login",
		TargetType:    "admin_account",
		TargetID:      account.ID().String(),
		Outcome:       OutcomeSuccess,
		CorrelationID: correlationID,
	})

	return &LoginResult{
		Token: token,
		Account: &readmodel.AdminAccountRM{
			ID:         account.ID(),
			Username:   account.Username(),
			Role:       account.Role().String(),
			CreatedUTC: account.CreatedAt(),
		},
	}, nil
}

func (u *authUseCaseImpl) CreateAccount(ctx context.Context, username, pass string, role admin.Role, actor Actor) (*readmodel.AdminAccountRM, error) {
	hash, err := password.HashPassword(pass)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInput)
	}

	account, err := admin.NewAccount(uuid.New(), username, hash, role)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInput)
	}

	err = u.uow.Within(ctx, func(tx db.DBTX) error {
		return u.adminRepo.Create(ctx, tx, account)
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
		Action:        "admin.accounts.create",
		TargetType:    "admin_account",
		TargetID:      account.ID().String(),
		Outcome:       OutcomeSuccess,
		CorrelationID: actor.CorrelationID,
		Meta:          map[string]any{"username": username, "role": role.String()},
	})

	return &readmodel.AdminAccountRM{
		ID:       account.ID(),
		Username: account.Username(),
		Role:     account.Role().String(),
	}, nil
}

func (u *authUseCaseImpl) ListAccounts(ctx context.Context) ([]*readmodel.AdminAccountRM, error) {
	return u.adminRepo.List(ctx, u.uow.DB())
}

func (u *authUseCaseImpl) BootstrapInitialAdmin(ctx context.Context, username, pass string) error {
	if username == "" || pass == "" {
		return nil
	}

	count, err := u.adminRepo.Count(ctx, u.uow.DB())
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if count > 0 {
		return nil
	}

	actor := SystemActor("bootstrap")
	if _, err := u.CreateAccount(ctx, username, pass, admin.RoleAdmin, actor); err != nil {
		return err
	}
	u.logger.Info("initial admin account created", "username", username)
	return nil
}
