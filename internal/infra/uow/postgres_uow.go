package uow

import (
	"context"
	"log/slog"
	"time"

	"guestgate/internal/infra/db"
	"guestgate/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Concurrent redemptions and admin extend/revoke on the same grant contend on
// the same rows; a serialization failure or deadlock gets a short rerun
// before the caller sees an error.
const (
	txAttempts  = 3
	txRetryWait = 50 * time.Millisecond
)

var ErrTxRetriesExhausted = errs.New("transaction still conflicting after reruns")

// PostgresUnitOfWork runs closures inside pgx transactions and hands out the
// pool for single-statement reads.
type PostgresUnitOfWork struct {
	pool *pgxpool.Pool
}

func NewPostgresUnitOfWork(pool *pgxpool.Pool) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{pool: pool}
}

// Within runs fn in one transaction; an error rolls everything back.
// Serialization failures rerun the whole closure, so fn must be safe to
// execute more than once (domain errors returned by fn are never retried).
func (u *PostgresUnitOfWork) Within(ctx context.Context, fn func(tx db.DBTX) error) error {
	var lastErr error

	for attempt := 1; attempt <= txAttempts; attempt++ {
		_, err := db.RunInTx(ctx, u.pool, func(tx db.DBTX) (struct{}, error) {
			return struct{}{}, fn(tx)
		})
		if err == nil {
			return nil
		}
		if !db.IsSerializationFailure(err) {
			return err
		}

		lastErr = err
		if attempt == txAttempts {
			break
		}
		slog.Warn("rerunning conflicting transaction",
			"attempt", attempt,
			"error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * txRetryWait):
		}
	}

	return errs.Mark(lastErr, ErrTxRetriesExhausted)
}

// DB returns the pool for reads that need no transaction.
func (u *PostgresUnitOfWork) DB() db.DBTX {
	return u.pool
}
