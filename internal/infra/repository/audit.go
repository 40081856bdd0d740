package repository

import (
	"context"
	"encoding/json"
	"time"

	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository is append-only: there is deliberately no update or delete.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

type AuditInsert struct {
	ID            uuid.UUID
	TimestampUTC  time.Time
	Actor         string
	RoleSnapshot  string
	Action        string
	TargetType    string
	TargetID      string
	Outcome       string
	CorrelationID string
	Meta          map[string]any
}

func (r *AuditRepository) Insert(ctx context.Context, tx db.DBTX, e AuditInsert) error {
	var metaJSON []byte
	if e.Meta != nil {
		var err error
		metaJSON, err = json.Marshal(e.Meta)
		if err != nil {
			return infra.WrapRepoErr("failed to marshal audit meta", err, infra.KindDBFailure)
		}
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO audit_log (id, timestamp_utc, actor, role_snapshot, action, target_type, target_id, outcome, correlation_id, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.TimestampUTC, e.Actor, e.RoleSnapshot, e.Action, e.TargetType, e.TargetID, e.Outcome, e.CorrelationID, metaJSON,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert audit entry", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, q db.DBTX, limit int) ([]*readmodel.AuditEntryRM, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.Query(ctx, `
		SELECT id, timestamp_utc, actor, role_snapshot, action, target_type, target_id, outcome, correlation_id, meta
		FROM audit_log
		ORDER BY timestamp_utc DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list audit entries", err)
	}
	defer rows.Close()

	var result []*readmodel.AuditEntryRM
	for rows.Next() {
		var (
			rm       readmodel.AuditEntryRM
			metaJSON []byte
		)
		if err := rows.Scan(&rm.ID, &rm.TimestampUTC, &rm.Actor, &rm.RoleSnapshot, &rm.Action,
			&rm.TargetType, &rm.TargetID, &rm.Outcome, &rm.CorrelationID, &metaJSON); err != nil {
			return nil, infra.WrapRepoErr("failed to scan audit row", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &rm.Meta); err != nil {
				return nil, infra.WrapRepoErr("failed to unmarshal audit meta", err)
			}
		}
		result = append(result, &rm)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("audit row iteration failed", err)
	}
	return result, nil
}
