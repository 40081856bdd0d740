package usecase

import (
	"context"
	"encoding/json"
	"time"

	"guestgate/internal/infra/db"
	"guestgate/internal/pkg/errs"

	"github.com/google/uuid"
)

// Controller operation types carried on the durable retry queue.
const (
	OpAuthorize = "authorize"
	OpRevoke    = "revoke"
	OpExtend    = "extend"
)

type AuthorizePayload struct {
	GrantID  uuid.UUID `json:"grant_id"`
	MAC      string    `json:"mac"`
	EndUTC   time.Time `json:"end_utc"`
	UpKbps   int       `json:"up_kbps,omitempty"`
	DownKbps int       `json:"down_kbps,omitempty"`
}

type RevokePayload struct {
	GrantID uuid.UUID `json:"grant_id"`
	MAC     string    `json:"mac"`
}

type ExtendPayload struct {
	GrantID uuid.UUID `json:"grant_id"`
	MAC     string    `json:"mac"`
	EndUTC  time.Time `json:"end_utc"`
}

// enqueueOp serializes a controller operation inside the caller's transaction
// so a committed grant implies an enqueued operation.
func enqueueOp(ctx context.Context, repo RetryQueueRepository, tx db.DBTX, opType string, payload any, now time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "failed to marshal controller op payload")
	}
	return repo.Enqueue(ctx, tx, uuid.New(), opType, raw, now)
}
