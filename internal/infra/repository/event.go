package repository

import (
	"context"
	"time"

	"guestgate/internal/domain/rental"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `id, integration_id, event_index, slot_name, slot_code, last_four,
	start_utc, end_utc, raw_attributes, created_utc, updated_utc`

// Upsert writes the projected event keyed by (integration_id, event_index).
func (r *EventRepository) Upsert(ctx context.Context, tx db.DBTX, e *rental.Event, now time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO rental_events (integration_id, event_index, slot_name, slot_code, last_four, start_utc, end_utc, raw_attributes, created_utc, updated_utc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (integration_id, event_index) DO UPDATE SET
			slot_name = EXCLUDED.slot_name,
			slot_code = EXCLUDED.slot_code,
			last_four = EXCLUDED.last_four,
			start_utc = EXCLUDED.start_utc,
			end_utc = EXCLUDED.end_utc,
			raw_attributes = EXCLUDED.raw_attributes,
			updated_utc = EXCLUDED.updated_utc`,
		e.IntegrationID(), e.EventIndex(), e.SlotName(), e.SlotCode(), e.LastFour(),
		e.Start(), e.End(), e.RawAttributes(), now,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to upsert rental event", err)
	}
	return nil
}

func (r *EventRepository) FindByIntegration(ctx context.Context, q db.DBTX, integrationID uuid.UUID) ([]*rental.Event, error) {
	rows, err := q.Query(ctx, `
		SELECT `+eventColumns+` FROM rental_events
		WHERE integration_id = $1
		ORDER BY event_index`,
		integrationID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find events by integration", err)
	}
	defer rows.Close()

	var result []*rental.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan event row", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("event row iteration failed", err)
	}
	return result, nil
}

// DeleteWhereEndBefore removes events past retention. Returns the count for
// the cleanup audit entry.
func (r *EventRepository) DeleteWhereEndBefore(ctx context.Context, tx db.DBTX, cutoff time.Time) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM rental_events WHERE end_utc < $1`, cutoff)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete stale events", err)
	}
	return tag.RowsAffected(), nil
}

func scanEvent(row rowScanner) (*rental.Event, error) {
	var (
		id            int64
		integrationID uuid.UUID
		eventIndex    int
		slotName      *string
		slotCode      *string
		lastFour      *string
		startUTC      time.Time
		endUTC        time.Time
		rawAttributes []byte
		createdUTC    time.Time
		updatedUTC    time.Time
	)
	if err := row.Scan(&id, &integrationID, &eventIndex, &slotName, &slotCode, &lastFour,
		&startUTC, &endUTC, &rawAttributes, &createdUTC, &updatedUTC); err != nil {
		return nil, err
	}
	return rental.ReconstructEvent(id, integrationID, eventIndex, slotName, slotCode, lastFour,
		startUTC, endUTC, rawAttributes, createdUTC, updatedUTC), nil
}
