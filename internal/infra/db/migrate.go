package db

import (
	"context"
	"embed"
	"log/slog"
	"sort"

	"guestgate/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies embedded migrations in lexical order. Migrations are
// forward-only; applied versions are recorded in schema_migrations and never
// re-run.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_utc TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return errs.Wrap(err, "failed to create schema_migrations")
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return errs.Wrap(err, "failed to read migrations")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, name).Scan(&exists); err != nil {
			return errs.Wrap(err, "failed to check migration state")
		}
		if exists {
			continue
		}

		sqlBytes, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return errs.Wrap(err, "failed to read migration "+name)
		}

		_, err = RunInTx(ctx, pool, func(tx DBTX) (struct{}, error) {
			if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
				return struct{}{}, errs.Wrap(err, "failed to apply migration "+name)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
				return struct{}{}, errs.Wrap(err, "failed to record migration "+name)
			}
			return struct{}{}, nil
		})
		if err != nil {
			return err
		}

		logger.Info("applied migration", "version", name)
	}

	return nil
}
