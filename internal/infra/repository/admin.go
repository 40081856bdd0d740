package repository

import (
	"context"
	"time"

	"guestgate/internal/domain/admin"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) Create(ctx context.Context, tx db.DBTX, a *admin.Account) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO admin_accounts (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)`,
		a.ID(), a.Username(), a.PasswordHash(), a.Role().String(),
	)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return infra.WrapRepoErr("username already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert admin account", err)
	}
	return nil
}

func (r *AdminRepository) FindByUsername(ctx context.Context, q db.DBTX, username string) (*admin.Account, error) {
	row := q.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_utc, last_login_utc
		FROM admin_accounts WHERE username = $1`,
		username,
	)

	var (
		id           uuid.UUID
		uname        string
		passwordHash string
		role         string
		createdUTC   time.Time
		lastLoginUTC *time.Time
	)
	if err := row.Scan(&id, &uname, &passwordHash, &role, &createdUTC, &lastLoginUTC); err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("admin account not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find admin account", err)
	}
	return admin.Reconstruct(id, uname, passwordHash, admin.Role(role), createdUTC, lastLoginUTC), nil
}

func (r *AdminRepository) UpdateLastLogin(ctx context.Context, tx db.DBTX, id uuid.UUID, now time.Time) error {
	_, err := tx.Exec(ctx, `UPDATE admin_accounts SET last_login_utc = $2 WHERE id = $1`, id, now)
	if err != nil {
		return infra.WrapRepoErr("failed to update last login", err)
	}
	return nil
}

func (r *AdminRepository) Count(ctx context.Context, q db.DBTX) (int64, error) {
	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM admin_accounts`).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count admin accounts", err)
	}
	return count, nil
}

func (r *AdminRepository) List(ctx context.Context, q db.DBTX) ([]*readmodel.AdminAccountRM, error) {
	rows, err := q.Query(ctx, `
		SELECT id, username, role, created_utc, last_login_utc
		FROM admin_accounts ORDER BY username`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list admin accounts", err)
	}
	defer rows.Close()

	var result []*readmodel.AdminAccountRM
	for rows.Next() {
		var rm readmodel.AdminAccountRM
		if err := rows.Scan(&rm.ID, &rm.Username, &rm.Role, &rm.CreatedUTC, &rm.LastLoginUTC); err != nil {
			return nil, infra.WrapRepoErr("failed to scan admin account row", err)
		}
		result = append(result, &rm)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("admin account row iteration failed", err)
	}
	return result, nil
}
