package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"guestgate/internal/infra/controller"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase"
	"guestgate/internal/usecase/readmodel"
)

const (
	retryPollInterval = time.Second
	retryBaseDelay    = 2 * time.Second
	retryMaxDelay     = 60 * time.Second
	retryMaxAttempts  = 5
	retryClaimBatch   = 20
	heartbeatInterval = time.Minute
)

// RetryWorker drains the durable controller-operation queue. A single worker
// runs per process; claimed rows are executed against the controller and
// rescheduled with jittered exponential backoff on transient failure.
type RetryWorker struct {
	queueRepo usecase.RetryQueueRepository
	grants    usecase.GrantUseCase
	audit     usecase.AuditUseCase
	ctrl      controller.Controller
	uow       usecase.UnitOfWork
	clock     clock.Clock
	logger    *slog.Logger
}

func NewRetryWorker(
	queueRepo usecase.RetryQueueRepository,
	grants usecase.GrantUseCase,
	audit usecase.AuditUseCase,
	ctrl controller.Controller,
	uow usecase.UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
) *RetryWorker {
	return &RetryWorker{
		queueRepo: queueRepo,
		grants:    grants,
		audit:     audit,
		ctrl:      ctrl,
		uow:       uow,
		clock:     clk,
		logger:    logger,
	}
}

func (w *RetryWorker) Run(ctx context.Context) {
	w.logger.Info("retry worker started")
	ticker := time.NewTicker(retryPollInterval)
	heartbeat := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retry worker stopped")
			return
		case <-heartbeat.C:
			pending, err := w.queueRepo.CountPending(ctx, w.uow.DB())
			if err == nil {
				w.logger.Info("retry worker heartbeat", "pending", pending)
			}
		case <-ticker.C:
			w.drainOnce(ctx)
		}
	}
}

func (w *RetryWorker) drainOnce(ctx context.Context) {
	now := w.clock.Now()
	ops, err := w.queueRepo.DuePending(ctx, w.uow.DB(), now, retryClaimBatch)
	if err != nil {
		w.logger.Error("failed to claim due operations", "error", err)
		return
	}

	for _, op := range ops {
		w.execute(ctx, op)
	}
}

func (w *RetryWorker) execute(ctx context.Context, op *readmodel.ControllerOpRM) {
	err := w.dispatch(ctx, op)
	now := w.clock.Now()
	attempts := op.Attempts + 1

	switch {
	case err == nil:
		if markErr := w.queueRepo.MarkDone(ctx, w.uow.DB(), op.ID, now); markErr != nil {
			w.logger.Error("failed to mark operation done", "op_id", op.ID, "error", markErr)
		}

	case !isTransient(err) || attempts >= retryMaxAttempts:
		if markErr := w.queueRepo.MarkDead(ctx, w.uow.DB(), op.ID, attempts, now); markErr != nil {
			w.logger.Error("failed to mark operation dead", "op_id", op.ID, "error", markErr)
		}
		w.logger.Error("controller operation dead",
			"op_id", op.ID, "op_type", op.OpType, "attempts", attempts, "error", err)
		actor := usecase.SystemActor("retry-worker")
		w.audit.Record(ctx, usecase.AuditEntry{
			Actor:         actor.Name,
			RoleSnapshot:  actor.Role,
			Action:        "controller." + op.OpType,
			TargetType:    "controller_op",
			TargetID:      op.ID.String(),
			Outcome:       usecase.OutcomeError,
			CorrelationID: actor.CorrelationID,
			Meta:          map[string]any{"attempts": attempts, "error": err.Error()},
		})

	default:
		next := now.Add(backoffDelay(attempts))
		if err := w.queueRepo.Reschedule(ctx, w.uow.DB(), op.ID, attempts, next, now); err != nil {
			w.logger.Error("failed to reschedule operation", "op_id", op.ID, "error", err)
			return
		}
		w.logger.Warn("controller operation rescheduled",
			"op_id", op.ID, "op_type", op.OpType, "attempt", attempts, "next_attempt_utc", next)
	}
}

func (w *RetryWorker) dispatch(ctx context.Context, op *readmodel.ControllerOpRM) error {
	switch op.OpType {
	case usecase.OpAuthorize:
		var p usecase.AuthorizePayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return errs.Wrap(err, "undecodable authorize payload")
		}
		grantID, err := w.ctrl.Authorize(ctx, controller.AuthorizeParams{
			MAC:      p.MAC,
			End:      p.EndUTC,
			UpKbps:   p.UpKbps,
			DownKbps: p.DownKbps,
		})
		if err != nil {
			return err
		}
		return w.grants.MarkControllerAck(ctx, p.GrantID, grantID)

	case usecase.OpRevoke:
		var p usecase.RevokePayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return errs.Wrap(err, "undecodable revoke payload")
		}
		return w.ctrl.Revoke(ctx, p.MAC)

	case usecase.OpExtend:
		var p usecase.ExtendPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return errs.Wrap(err, "undecodable extend payload")
		}
		return w.ctrl.Extend(ctx, p.MAC, p.EndUTC)

	default:
		return errs.Newf("unknown operation type %q", op.OpType)
	}
}

// backoffDelay is exponential in the attempt count with up to 25% jitter,
// capped at retryMaxDelay.
func backoffDelay(attempts int) time.Duration {
	delay := retryBaseDelay << (attempts - 1)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	jitter := time.Duration(rand.Int64N(int64(delay) / 4))
	return delay + jitter
}

func isTransient(err error) bool {
	return errors.Is(err, errs.ErrControllerUnavailable) ||
		errors.Is(err, errs.ErrControllerTimeout) ||
		errors.Is(err, errs.ErrRetryExhausted)
}
