package repository

import (
	"context"
	"time"

	"guestgate/internal/domain/grant"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GrantRepository struct {
	pool *pgxpool.Pool
}

func NewGrantRepository(pool *pgxpool.Pool) *GrantRepository {
	return &GrantRepository{pool: pool}
}

const grantColumns = `id, voucher_code, booking_ref, integration_id, user_input_code, mac, session_token,
	start_utc, end_utc, controller_grant_id, status, created_utc, updated_utc`

// Create inserts a grant. The partial unique index on (mac, identifier)
// rejects a second non-revoked grant for the same pair; callers map the
// duplicate-key kind onto their duplicate error.
func (r *GrantRepository) Create(ctx context.Context, tx db.DBTX, g *grant.Grant) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO access_grants (`+grantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		g.ID(), g.VoucherCode(), g.BookingRef(), g.IntegrationID(), g.UserInputCode(), g.MAC(), g.SessionToken(),
		g.Start(), g.End(), g.ControllerGrantID(), string(g.Status()), g.CreatedAt(), g.UpdatedAt(),
	)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return infra.WrapRepoErr("non-revoked grant already exists for this device and code", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert grant", err)
	}
	return nil
}

func (r *GrantRepository) FindByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*grant.Grant, error) {
	row := q.QueryRow(ctx, `SELECT `+grantColumns+` FROM access_grants WHERE id = $1`, id)
	g, err := scanGrant(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("grant not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find grant by id", err)
	}
	return g, nil
}

// FindActiveByMAC returns non-terminal grants for a device.
func (r *GrantRepository) FindActiveByMAC(ctx context.Context, q db.DBTX, mac string) ([]*grant.Grant, error) {
	rows, err := q.Query(ctx, `
		SELECT `+grantColumns+` FROM access_grants
		WHERE mac = $1 AND status IN ('pending', 'active')`,
		mac,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find grants by mac", err)
	}
	defer rows.Close()
	return collectGrants(rows)
}

// FindNonRevoked returns any grant for (mac, identifier) still occupying the
// uniqueness slot.
func (r *GrantRepository) FindNonRevoked(ctx context.Context, q db.DBTX, mac, identifier string) (*grant.Grant, error) {
	row := q.QueryRow(ctx, `
		SELECT `+grantColumns+` FROM access_grants
		WHERE mac = $1 AND COALESCE(voucher_code, booking_ref) = $2 AND status <> 'revoked'`,
		mac, identifier,
	)
	g, err := scanGrant(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("grant not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find grant by mac and identifier", err)
	}
	return g, nil
}

func (r *GrantRepository) Update(ctx context.Context, tx db.DBTX, g *grant.Grant) error {
	_, err := tx.Exec(ctx, `
		UPDATE access_grants
		SET mac = $2, session_token = $3, end_utc = $4, controller_grant_id = $5, status = $6, updated_utc = $7
		WHERE id = $1`,
		g.ID(), g.MAC(), g.SessionToken(), g.End(), g.ControllerGrantID(), string(g.Status()), g.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update grant", err)
	}
	return nil
}

// ExpireSweep flips ACTIVE grants whose window has closed. The controller is
// not called; its own expiry is carried by the time parameter sent at
// authorize.
func (r *GrantRepository) ExpireSweep(ctx context.Context, tx db.DBTX, now time.Time) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE access_grants
		SET status = 'expired', updated_utc = $1
		WHERE status = 'active' AND end_utc <= $1`,
		now,
	)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to sweep expired grants", err)
	}
	return tag.RowsAffected(), nil
}

// FindUnreconciled returns PENDING session-token grants older than the MAC
// reconciliation deadline.
func (r *GrantRepository) FindUnreconciled(ctx context.Context, q db.DBTX, before time.Time) ([]*grant.Grant, error) {
	rows, err := q.Query(ctx, `
		SELECT `+grantColumns+` FROM access_grants
		WHERE status = 'pending' AND session_token IS NOT NULL AND created_utc < $1`,
		before,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find unreconciled grants", err)
	}
	defer rows.Close()
	return collectGrants(rows)
}

func (r *GrantRepository) List(ctx context.Context, q db.DBTX, status string, limit int) ([]*readmodel.GrantRM, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.Query(ctx, `
		SELECT `+grantColumns+` FROM access_grants
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_utc DESC
		LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list grants", err)
	}
	defer rows.Close()

	var result []*readmodel.GrantRM
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan grant row", err)
		}
		result = append(result, ToGrantRM(g))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("grant row iteration failed", err)
	}
	return result, nil
}

func scanGrant(row rowScanner) (*grant.Grant, error) {
	var (
		id                uuid.UUID
		voucherCode       *string
		bookingRef        *string
		integrationID     *uuid.UUID
		userInputCode     *string
		mac               string
		sessionToken      *string
		startUTC          time.Time
		endUTC            time.Time
		controllerGrantID *string
		status            string
		createdUTC        time.Time
		updatedUTC        time.Time
	)
	if err := row.Scan(&id, &voucherCode, &bookingRef, &integrationID, &userInputCode, &mac, &sessionToken,
		&startUTC, &endUTC, &controllerGrantID, &status, &createdUTC, &updatedUTC); err != nil {
		return nil, err
	}
	return grant.Reconstruct(id, voucherCode, bookingRef, integrationID, userInputCode, mac, sessionToken,
		startUTC, endUTC, controllerGrantID, grant.Status(status), createdUTC, updatedUTC), nil
}

func collectGrants(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]*grant.Grant, error) {
	var result []*grant.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan grant row", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("grant row iteration failed", err)
	}
	return result, nil
}

func ToGrantRM(g *grant.Grant) *readmodel.GrantRM {
	return &readmodel.GrantRM{
		ID:                g.ID(),
		VoucherCode:       g.VoucherCode(),
		BookingRef:        g.BookingRef(),
		IntegrationID:     g.IntegrationID(),
		UserInputCode:     g.UserInputCode(),
		MAC:               g.MAC(),
		SessionToken:      g.SessionToken(),
		StartUTC:          g.Start(),
		EndUTC:            g.End(),
		ControllerGrantID: g.ControllerGrantID(),
		Status:            string(g.Status()),
		CreatedUTC:        g.CreatedAt(),
		UpdatedUTC:        g.UpdatedAt(),
	}
}
