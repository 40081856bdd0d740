//go:build unit

package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"guestgate/internal/infra/controller"
	"guestgate/internal/infra/db"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/errs"
	"guestgate/internal/usecase"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type queueState struct {
	mu          sync.Mutex
	done        []uuid.UUID
	dead        []uuid.UUID
	rescheduled []time.Time
}

func (q *queueState) Enqueue(context.Context, db.DBTX, uuid.UUID, string, []byte, time.Time) error {
	return nil
}
func (q *queueState) DuePending(context.Context, db.DBTX, time.Time, int) ([]*readmodel.ControllerOpRM, error) {
	return nil, nil
}
func (q *queueState) MarkDone(_ context.Context, _ db.DBTX, id uuid.UUID, _ time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.done = append(q.done, id)
	return nil
}
func (q *queueState) Reschedule(_ context.Context, _ db.DBTX, _ uuid.UUID, _ int, next, _ time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rescheduled = append(q.rescheduled, next)
	return nil
}
func (q *queueState) MarkDead(_ context.Context, _ db.DBTX, id uuid.UUID, _ int, _ time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, id)
	return nil
}
func (q *queueState) CountPending(context.Context, db.DBTX) (int64, error) { return 0, nil }

type fakeController struct {
	authorizeErr error
	revokeErr    error
	authorized   []string
	revoked      []string
}

func (f *fakeController) Authorize(_ context.Context, p controller.AuthorizeParams) (string, error) {
	if f.authorizeErr != nil {
		return "", f.authorizeErr
	}
	f.authorized = append(f.authorized, p.MAC)
	return "ctrl-1", nil
}

func (f *fakeController) Revoke(_ context.Context, mac string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, mac)
	return nil
}

func (f *fakeController) Extend(ctx context.Context, mac string, _ time.Time) error {
	_, err := f.Authorize(ctx, controller.AuthorizeParams{MAC: mac})
	return err
}

func (f *fakeController) Health(context.Context) error { return nil }

type ackRecorder struct {
	mu   sync.Mutex
	acks map[uuid.UUID]string
}

func (a *ackRecorder) Create(context.Context, usecase.CreateGrantParams, usecase.Actor) (*readmodel.GrantRM, error) {
	return nil, nil
}
func (a *ackRecorder) Extend(context.Context, uuid.UUID, int, usecase.Actor) (*readmodel.GrantRM, error) {
	return nil, nil
}
func (a *ackRecorder) Revoke(context.Context, uuid.UUID, string, usecase.Actor) (*readmodel.GrantRM, error) {
	return nil, nil
}
func (a *ackRecorder) Get(context.Context, uuid.UUID) (*readmodel.GrantRM, error) { return nil, nil }
func (a *ackRecorder) List(context.Context, string, int) ([]*readmodel.GrantRM, error) {
	return nil, nil
}
func (a *ackRecorder) MarkControllerAck(_ context.Context, grantID uuid.UUID, controllerGrantID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.acks == nil {
		a.acks = make(map[uuid.UUID]string)
	}
	a.acks[grantID] = controllerGrantID
	return nil
}
func (a *ackRecorder) ExpireSweep(context.Context) (int64, error)       { return 0, nil }
func (a *ackRecorder) RevokeUnreconciled(context.Context) (int, error) { return 0, nil }

type auditRecorder struct {
	mu      sync.Mutex
	entries []usecase.AuditEntry
}

func (a *auditRecorder) Record(_ context.Context, e usecase.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}
func (a *auditRecorder) List(context.Context, int) ([]*readmodel.AuditEntryRM, error) {
	return nil, nil
}

type nilUOW struct{}

func (nilUOW) Within(ctx context.Context, fn func(tx db.DBTX) error) error { return fn(nil) }
func (nilUOW) DB() db.DBTX                                                 { return nil }

func newWorkerFixture(ctrl *fakeController) (*RetryWorker, *queueState, *ackRecorder, *auditRecorder) {
	queue := &queueState{}
	grants := &ackRecorder{}
	audit := &auditRecorder{}
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	w := NewRetryWorker(queue, grants, audit, ctrl, nilUOW{}, clk, discardLogger())
	return w, queue, grants, audit
}

func mustPayload(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestExecuteAuthorizeSuccess(t *testing.T) {
	ctrl := &fakeController{}
	w, queue, grants, _ := newWorkerFixture(ctrl)

	grantID := uuid.New()
	op := &readmodel.ControllerOpRM{
		ID:      uuid.New(),
		OpType:  usecase.OpAuthorize,
		Payload: mustPayload(t, usecase.AuthorizePayload{GrantID: grantID, MAC: "AA:BB:CC:DD:EE:FF"}),
	}
	w.execute(context.Background(), op)

	assert.Equal(t, []string{"AA:BB:CC:DD:EE:FF"}, ctrl.authorized)
	assert.Equal(t, []uuid.UUID{op.ID}, queue.done)
	assert.Equal(t, "ctrl-1", grants.acks[grantID])
}

func TestExecuteTransientFailureReschedules(t *testing.T) {
	ctrl := &fakeController{authorizeErr: errs.ErrControllerUnavailable}
	w, queue, _, _ := newWorkerFixture(ctrl)

	op := &readmodel.ControllerOpRM{
		ID:      uuid.New(),
		OpType:  usecase.OpAuthorize,
		Payload: mustPayload(t, usecase.AuthorizePayload{GrantID: uuid.New(), MAC: "AA:BB:CC:DD:EE:FF"}),
		Attempts: 0,
	}
	w.execute(context.Background(), op)

	assert.Empty(t, queue.done)
	assert.Empty(t, queue.dead)
	require.Len(t, queue.rescheduled, 1)
}

func TestExecuteExhaustionMarksDeadAndAudits(t *testing.T) {
	ctrl := &fakeController{authorizeErr: errs.ErrControllerUnavailable}
	w, queue, _, audit := newWorkerFixture(ctrl)

	op := &readmodel.ControllerOpRM{
		ID:       uuid.New(),
		OpType:   usecase.OpAuthorize,
		Payload:  mustPayload(t, usecase.AuthorizePayload{GrantID: uuid.New(), MAC: "AA:BB:CC:DD:EE:FF"}),
		Attempts: retryMaxAttempts - 1,
	}
	w.execute(context.Background(), op)

	assert.Equal(t, []uuid.UUID{op.ID}, queue.dead)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, usecase.OutcomeError, audit.entries[0].Outcome)
	assert.Equal(t, "controller.authorize", audit.entries[0].Action)
}

func TestExecutePermanentFailureDeadImmediately(t *testing.T) {
	ctrl := &fakeController{authorizeErr: errs.ErrControllerRejected}
	w, queue, _, _ := newWorkerFixture(ctrl)

	op := &readmodel.ControllerOpRM{
		ID:      uuid.New(),
		OpType:  usecase.OpAuthorize,
		Payload: mustPayload(t, usecase.AuthorizePayload{GrantID: uuid.New(), MAC: "AA:BB:CC:DD:EE:FF"}),
	}
	w.execute(context.Background(), op)

	assert.Empty(t, queue.rescheduled)
	assert.Equal(t, []uuid.UUID{op.ID}, queue.dead)
}

func TestExecuteRevoke(t *testing.T) {
	ctrl := &fakeController{}
	w, queue, _, _ := newWorkerFixture(ctrl)

	op := &readmodel.ControllerOpRM{
		ID:      uuid.New(),
		OpType:  usecase.OpRevoke,
		Payload: mustPayload(t, usecase.RevokePayload{GrantID: uuid.New(), MAC: "AA:BB:CC:DD:EE:FF"}),
	}
	w.execute(context.Background(), op)

	assert.Equal(t, []string{"AA:BB:CC:DD:EE:FF"}, ctrl.revoked)
	assert.Equal(t, []uuid.UUID{op.ID}, queue.done)
}

func TestBackoffDelayBounds(t *testing.T) {
	for attempts := 1; attempts <= retryMaxAttempts; attempts++ {
		base := retryBaseDelay << (attempts - 1)
		if base > retryMaxDelay {
			base = retryMaxDelay
		}
		for i := 0; i < 20; i++ {
			d := backoffDelay(attempts)
			assert.GreaterOrEqual(t, d, base)
			assert.Less(t, d, base+base/4+time.Millisecond)
		}
	}
}
