package repository

import (
	"context"
	"time"

	"guestgate/internal/domain/rental"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IntegrationRepository struct {
	pool *pgxpool.Pool
}

func NewIntegrationRepository(pool *pgxpool.Pool) *IntegrationRepository {
	return &IntegrationRepository{pool: pool}
}

const integrationColumns = `id, integration_id, enabled, auth_attribute, checkout_grace_minutes, last_sync_utc, stale_count`

func (r *IntegrationRepository) Create(ctx context.Context, tx db.DBTX, ic *rental.IntegrationConfig) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO integration_configs (id, integration_id, enabled, auth_attribute, checkout_grace_minutes, stale_count)
		VALUES ($1, $2, $3, $4, $5, 0)`,
		ic.ID(), ic.IntegrationID(), ic.Enabled(), string(ic.AuthAttribute()), ic.GraceMinutes(),
	)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return infra.WrapRepoErr("integration already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert integration", err)
	}
	return nil
}

func (r *IntegrationRepository) Update(ctx context.Context, tx db.DBTX, ic *rental.IntegrationConfig) error {
	_, err := tx.Exec(ctx, `
		UPDATE integration_configs
		SET enabled = $2, auth_attribute = $3, checkout_grace_minutes = $4
		WHERE id = $1`,
		ic.ID(), ic.Enabled(), string(ic.AuthAttribute()), ic.GraceMinutes(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update integration", err)
	}
	return nil
}

func (r *IntegrationRepository) Delete(ctx context.Context, tx db.DBTX, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM integration_configs WHERE id = $1`, id)
	if err != nil {
		return infra.WrapRepoErr("failed to delete integration", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("integration not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *IntegrationRepository) FindByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*rental.IntegrationConfig, error) {
	row := q.QueryRow(ctx, `SELECT `+integrationColumns+` FROM integration_configs WHERE id = $1`, id)
	ic, err := scanIntegration(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("integration not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find integration", err)
	}
	return ic, nil
}

func (r *IntegrationRepository) FindEnabled(ctx context.Context, q db.DBTX) ([]*rental.IntegrationConfig, error) {
	return r.findWhere(ctx, q, `WHERE enabled`)
}

func (r *IntegrationRepository) FindAll(ctx context.Context, q db.DBTX) ([]*rental.IntegrationConfig, error) {
	return r.findWhere(ctx, q, ``)
}

func (r *IntegrationRepository) findWhere(ctx context.Context, q db.DBTX, where string) ([]*rental.IntegrationConfig, error) {
	rows, err := q.Query(ctx, `SELECT `+integrationColumns+` FROM integration_configs `+where+` ORDER BY integration_id`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list integrations", err)
	}
	defer rows.Close()

	var result []*rental.IntegrationConfig
	for rows.Next() {
		ic, err := scanIntegration(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan integration row", err)
		}
		result = append(result, ic)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("integration row iteration failed", err)
	}
	return result, nil
}

// MarkSyncSuccess resets the stale counter and stamps the sync time.
func (r *IntegrationRepository) MarkSyncSuccess(ctx context.Context, tx db.DBTX, id uuid.UUID, now time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE integration_configs SET last_sync_utc = $2, stale_count = 0 WHERE id = $1`,
		id, now,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark sync success", err)
	}
	return nil
}

// IncrementStale bumps the missed-poll counter and returns the new value.
func (r *IntegrationRepository) IncrementStale(ctx context.Context, tx db.DBTX, id uuid.UUID) (int, error) {
	var staleCount int
	err := tx.QueryRow(ctx, `
		UPDATE integration_configs SET stale_count = stale_count + 1 WHERE id = $1
		RETURNING stale_count`,
		id,
	).Scan(&staleCount)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to increment stale count", err)
	}
	return staleCount, nil
}

func scanIntegration(row rowScanner) (*rental.IntegrationConfig, error) {
	var (
		id            uuid.UUID
		integrationID string
		enabled       bool
		authAttribute string
		graceMinutes  int
		lastSyncUTC   *time.Time
		staleCount    int
	)
	if err := row.Scan(&id, &integrationID, &enabled, &authAttribute, &graceMinutes, &lastSyncUTC, &staleCount); err != nil {
		return nil, err
	}
	return rental.ReconstructIntegrationConfig(id, integrationID, enabled,
		rental.AuthAttribute(authAttribute), graceMinutes, lastSyncUTC, staleCount), nil
}

func ToIntegrationRM(ic *rental.IntegrationConfig) *readmodel.IntegrationRM {
	return &readmodel.IntegrationRM{
		ID:                   ic.ID(),
		IntegrationID:        ic.IntegrationID(),
		Enabled:              ic.Enabled(),
		AuthAttribute:        string(ic.AuthAttribute()),
		CheckoutGraceMinutes: ic.GraceMinutes(),
		LastSyncUTC:          ic.LastSyncAt(),
		StaleCount:           ic.StaleCount(),
	}
}
