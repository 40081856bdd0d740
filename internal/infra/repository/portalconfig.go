package repository

import (
	"context"

	"guestgate/internal/domain/portalcfg"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/usecase/readmodel"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PortalConfigRepository struct {
	pool *pgxpool.Pool
}

func NewPortalConfigRepository(pool *pgxpool.Pool) *PortalConfigRepository {
	return &PortalConfigRepository{pool: pool}
}

func (r *PortalConfigRepository) Get(ctx context.Context, q db.DBTX) (*portalcfg.Config, error) {
	row := q.QueryRow(ctx, `
		SELECT rate_limit_attempts, rate_limit_window_seconds, success_redirect_url, voucher_length_default
		FROM portal_config WHERE id = 1`)

	var (
		attempts      int
		windowSeconds int
		redirectURL   string
		voucherLength int
	)
	if err := row.Scan(&attempts, &windowSeconds, &redirectURL, &voucherLength); err != nil {
		if infra.IsNoRows(err) {
			return portalcfg.Default(), nil
		}
		return nil, infra.WrapRepoErr("failed to load portal config", err)
	}

	cfg, err := portalcfg.NewConfig(attempts, windowSeconds, redirectURL, voucherLength)
	if err != nil {
		return nil, infra.WrapRepoErr("stored portal config is invalid", err)
	}
	return cfg, nil
}

func (r *PortalConfigRepository) Update(ctx context.Context, tx db.DBTX, cfg *portalcfg.Config) error {
	_, err := tx.Exec(ctx, `
		UPDATE portal_config
		SET rate_limit_attempts = $1, rate_limit_window_seconds = $2, success_redirect_url = $3, voucher_length_default = $4
		WHERE id = 1`,
		cfg.RateLimitAttempts(), cfg.RateLimitWindowSeconds(), cfg.SuccessRedirectURL(), cfg.VoucherLengthDefault(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update portal config", err)
	}
	return nil
}

func ToPortalConfigRM(cfg *portalcfg.Config) *readmodel.PortalConfigRM {
	return &readmodel.PortalConfigRM{
		RateLimitAttempts:      cfg.RateLimitAttempts(),
		RateLimitWindowSeconds: cfg.RateLimitWindowSeconds(),
		SuccessRedirectURL:     cfg.SuccessRedirectURL(),
		VoucherLengthDefault:   cfg.VoucherLengthDefault(),
	}
}
