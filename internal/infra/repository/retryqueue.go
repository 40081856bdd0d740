package repository

import (
	"context"
	"time"

	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RetryQueueRepository backs the durable controller-operation queue. Rows
// survive restarts; the worker is the only reader.
type RetryQueueRepository struct {
	pool *pgxpool.Pool
}

func NewRetryQueueRepository(pool *pgxpool.Pool) *RetryQueueRepository {
	return &RetryQueueRepository{pool: pool}
}

// Enqueue inserts inside the caller's transaction so a committed grant
// implies a committed operation.
func (r *RetryQueueRepository) Enqueue(ctx context.Context, tx db.DBTX, id uuid.UUID, opType string, payload []byte, nextAttempt time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO controller_ops (id, op_type, payload, attempts, next_attempt_utc, status)
		VALUES ($1, $2, $3, 0, $4, 'pending')`,
		id, opType, payload, nextAttempt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to enqueue controller operation", err)
	}
	return nil
}

// DuePending claims operations whose next attempt has arrived. FOR UPDATE
// SKIP LOCKED keeps a second worker (or a restart overlap) from double
// processing.
func (r *RetryQueueRepository) DuePending(ctx context.Context, tx db.DBTX, now time.Time, limit int) ([]*readmodel.ControllerOpRM, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, op_type, payload, attempts, next_attempt_utc, status, created_utc, updated_utc
		FROM controller_ops
		WHERE status = 'pending' AND next_attempt_utc <= $1
		ORDER BY next_attempt_utc
		LIMIT $2
		FOR UPDATE SKIP LOCKED`,
		now, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim due operations", err)
	}
	defer rows.Close()

	var result []*readmodel.ControllerOpRM
	for rows.Next() {
		var rm readmodel.ControllerOpRM
		if err := rows.Scan(&rm.ID, &rm.OpType, &rm.Payload, &rm.Attempts, &rm.NextAttemptUTC, &rm.Status, &rm.CreatedUTC, &rm.UpdatedUTC); err != nil {
			return nil, infra.WrapRepoErr("failed to scan controller op row", err)
		}
		result = append(result, &rm)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("controller op row iteration failed", err)
	}
	return result, nil
}

func (r *RetryQueueRepository) MarkDone(ctx context.Context, tx db.DBTX, id uuid.UUID, now time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE controller_ops SET status = 'done', updated_utc = $2 WHERE id = $1`, id, now)
	if err != nil {
		return infra.WrapRepoErr("failed to mark operation done", err)
	}
	return nil
}

func (r *RetryQueueRepository) Reschedule(ctx context.Context, tx db.DBTX, id uuid.UUID, attempts int, nextAttempt, now time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE controller_ops SET attempts = $2, next_attempt_utc = $3, updated_utc = $4 WHERE id = $1`,
		id, attempts, nextAttempt, now)
	if err != nil {
		return infra.WrapRepoErr("failed to reschedule operation", err)
	}
	return nil
}

func (r *RetryQueueRepository) MarkDead(ctx context.Context, tx db.DBTX, id uuid.UUID, attempts int, now time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE controller_ops SET status = 'dead', attempts = $2, updated_utc = $3 WHERE id = $1`,
		id, attempts, now)
	if err != nil {
		return infra.WrapRepoErr("failed to mark operation dead", err)
	}
	return nil
}

func (r *RetryQueueRepository) CountPending(ctx context.Context, q db.DBTX) (int64, error) {
	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM controller_ops WHERE status = 'pending'`).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count pending operations", err)
	}
	return count, nil
}
