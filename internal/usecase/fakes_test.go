//go:build unit

package usecase_test

import (
	"context"
	"sync"
	"time"

	"guestgate/internal/domain/grant"
	"guestgate/internal/domain/rental"
	"guestgate/internal/domain/voucher"
	"guestgate/internal/infra"
	"guestgate/internal/infra/db"
	"guestgate/internal/infra/repository"
	"guestgate/internal/usecase"
	"guestgate/internal/usecase/readmodel"

	"github.com/google/uuid"
)

// In-memory fakes honoring the same contracts as the pgx repositories,
// including the partial uniqueness on (mac, identifier) for non-revoked
// grants.

type fakeUOW struct{}

func (fakeUOW) Within(ctx context.Context, fn func(tx db.DBTX) error) error { return fn(nil) }
func (fakeUOW) DB() db.DBTX                                                 { return nil }

type fakeVoucherRepo struct {
	mu          sync.Mutex
	vouchers    map[string]*voucher.Voucher
	failCreates int // duplicate-key failures to inject before success
}

func newFakeVoucherRepo() *fakeVoucherRepo {
	return &fakeVoucherRepo{vouchers: make(map[string]*voucher.Voucher)}
}

func (f *fakeVoucherRepo) Create(_ context.Context, _ db.DBTX, v *voucher.Voucher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreates > 0 {
		f.failCreates--
		return infra.WrapRepoErr("voucher code already exists", nil, infra.KindDuplicateKey)
	}
	key := v.Code().String()
	if _, exists := f.vouchers[key]; exists {
		return infra.WrapRepoErr("voucher code already exists", nil, infra.KindDuplicateKey)
	}
	f.vouchers[key] = v
	return nil
}

func (f *fakeVoucherRepo) FindByCodeCI(_ context.Context, _ db.DBTX, code string) (*voucher.Voucher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	normalized, err := voucher.NewCode(code)
	if err != nil {
		return nil, infra.WrapRepoErr("voucher not found", nil, infra.KindNotFound)
	}
	v, ok := f.vouchers[normalized.String()]
	if !ok {
		return nil, infra.WrapRepoErr("voucher not found", nil, infra.KindNotFound)
	}
	return cloneVoucher(v), nil
}

func (f *fakeVoucherRepo) Update(_ context.Context, _ db.DBTX, v *voucher.Voucher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vouchers[v.Code().String()] = cloneVoucher(v)
	return nil
}

func (f *fakeVoucherRepo) List(_ context.Context, _ db.DBTX) ([]*readmodel.VoucherRM, error) {
	return nil, nil
}

func (f *fakeVoucherRepo) get(code string) *voucher.Voucher {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vouchers[code]
}

func cloneVoucher(v *voucher.Voucher) *voucher.Voucher {
	return voucher.Reconstruct(v.Code(), v.CreatedAt(), v.DurationMinutes(), v.UpKbps(), v.DownKbps(),
		v.Status(), v.BookingRef(), v.RedeemedCount(), v.LastRedeemedAt())
}

type fakeGrantRepo struct {
	mu     sync.Mutex
	grants map[uuid.UUID]*grant.Grant
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{grants: make(map[uuid.UUID]*grant.Grant)}
}

func (f *fakeGrantRepo) Create(_ context.Context, _ db.DBTX, g *grant.Grant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.grants {
		if existing.Status() != grant.StatusRevoked &&
			existing.MAC() == g.MAC() && existing.Identifier() == g.Identifier() {
			return infra.WrapRepoErr("non-revoked grant already exists", nil, infra.KindDuplicateKey)
		}
	}
	f.grants[g.ID()] = g
	return nil
}

func (f *fakeGrantRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*grant.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.grants[id]
	if !ok {
		return nil, infra.WrapRepoErr("grant not found", nil, infra.KindNotFound)
	}
	return g, nil
}

func (f *fakeGrantRepo) FindActiveByMAC(_ context.Context, _ db.DBTX, mac string) ([]*grant.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*grant.Grant
	for _, g := range f.grants {
		if g.MAC() == mac && (g.Status() == grant.StatusPending || g.Status() == grant.StatusActive) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGrantRepo) FindNonRevoked(_ context.Context, _ db.DBTX, mac, identifier string) (*grant.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.grants {
		if g.MAC() == mac && g.Identifier() == identifier && g.Status() != grant.StatusRevoked {
			return g, nil
		}
	}
	return nil, infra.WrapRepoErr("grant not found", nil, infra.KindNotFound)
}

func (f *fakeGrantRepo) Update(_ context.Context, _ db.DBTX, g *grant.Grant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants[g.ID()] = g
	return nil
}

func (f *fakeGrantRepo) ExpireSweep(_ context.Context, _ db.DBTX, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, g := range f.grants {
		if g.Status() == grant.StatusActive && g.Expire(now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeGrantRepo) FindUnreconciled(_ context.Context, _ db.DBTX, before time.Time) ([]*grant.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*grant.Grant
	for _, g := range f.grants {
		if g.Status() == grant.StatusPending && g.SessionToken() != nil && g.CreatedAt().Before(before) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGrantRepo) List(_ context.Context, _ db.DBTX, status string, limit int) ([]*readmodel.GrantRM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*readmodel.GrantRM
	for _, g := range f.grants {
		if status == "" || string(g.Status()) == status {
			out = append(out, repository.ToGrantRM(g))
		}
	}
	return out, nil
}

func (f *fakeGrantRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.grants)
}

type queuedOp struct {
	ID      uuid.UUID
	OpType  string
	Payload []byte
}

type fakeQueueRepo struct {
	mu  sync.Mutex
	ops []queuedOp
}

func (f *fakeQueueRepo) Enqueue(_ context.Context, _ db.DBTX, id uuid.UUID, opType string, payload []byte, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, queuedOp{ID: id, OpType: opType, Payload: payload})
	return nil
}

func (f *fakeQueueRepo) DuePending(_ context.Context, _ db.DBTX, _ time.Time, _ int) ([]*readmodel.ControllerOpRM, error) {
	return nil, nil
}
func (f *fakeQueueRepo) MarkDone(_ context.Context, _ db.DBTX, _ uuid.UUID, _ time.Time) error {
	return nil
}
func (f *fakeQueueRepo) Reschedule(_ context.Context, _ db.DBTX, _ uuid.UUID, _ int, _, _ time.Time) error {
	return nil
}
func (f *fakeQueueRepo) MarkDead(_ context.Context, _ db.DBTX, _ uuid.UUID, _ int, _ time.Time) error {
	return nil
}
func (f *fakeQueueRepo) CountPending(_ context.Context, _ db.DBTX) (int64, error) { return 0, nil }

func (f *fakeQueueRepo) byType(opType string) []queuedOp {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []queuedOp
	for _, op := range f.ops {
		if op.OpType == opType {
			out = append(out, op)
		}
	}
	return out
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []usecase.AuditEntry
}

func (f *fakeAudit) Record(_ context.Context, e usecase.AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

func (f *fakeAudit) List(_ context.Context, _ int) ([]*readmodel.AuditEntryRM, error) {
	return nil, nil
}

func (f *fakeAudit) byAction(action string) []usecase.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []usecase.AuditEntry
	for _, e := range f.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID][]*rental.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID][]*rental.Event)}
}

func (f *fakeEventRepo) Upsert(_ context.Context, _ db.DBTX, e *rental.Event, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.events[e.IntegrationID()]
	for i, old := range existing {
		if old.EventIndex() == e.EventIndex() {
			existing[i] = e
			return nil
		}
	}
	f.events[e.IntegrationID()] = append(existing, e)
	return nil
}

func (f *fakeEventRepo) FindByIntegration(_ context.Context, _ db.DBTX, id uuid.UUID) ([]*rental.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id], nil
}

func (f *fakeEventRepo) DeleteWhereEndBefore(_ context.Context, _ db.DBTX, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, events := range f.events {
		kept := events[:0]
		for _, e := range events {
			if e.End().Before(cutoff) {
				deleted++
			} else {
				kept = append(kept, e)
			}
		}
		f.events[id] = kept
	}
	return deleted, nil
}

type fakeIntegrationRepo struct {
	mu      sync.Mutex
	configs []*rental.IntegrationConfig
	stale   map[uuid.UUID]int
	synced  map[uuid.UUID]time.Time
}

func newFakeIntegrationRepo(configs ...*rental.IntegrationConfig) *fakeIntegrationRepo {
	return &fakeIntegrationRepo{
		configs: configs,
		stale:   make(map[uuid.UUID]int),
		synced:  make(map[uuid.UUID]time.Time),
	}
}

func (f *fakeIntegrationRepo) Create(_ context.Context, _ db.DBTX, ic *rental.IntegrationConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.configs {
		if existing.IntegrationID() == ic.IntegrationID() {
			return infra.WrapRepoErr("integration already exists", nil, infra.KindDuplicateKey)
		}
	}
	f.configs = append(f.configs, ic)
	return nil
}

func (f *fakeIntegrationRepo) Update(_ context.Context, _ db.DBTX, ic *rental.IntegrationConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.configs {
		if existing.ID() == ic.ID() {
			f.configs[i] = ic
			return nil
		}
	}
	return infra.WrapRepoErr("integration not found", nil, infra.KindNotFound)
}

func (f *fakeIntegrationRepo) Delete(_ context.Context, _ db.DBTX, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.configs {
		if existing.ID() == id {
			f.configs = append(f.configs[:i], f.configs[i+1:]...)
			return nil
		}
	}
	return infra.WrapRepoErr("integration not found", nil, infra.KindNotFound)
}

func (f *fakeIntegrationRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*rental.IntegrationConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ic := range f.configs {
		if ic.ID() == id {
			return ic, nil
		}
	}
	return nil, infra.WrapRepoErr("integration not found", nil, infra.KindNotFound)
}

func (f *fakeIntegrationRepo) FindEnabled(_ context.Context, _ db.DBTX) ([]*rental.IntegrationConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*rental.IntegrationConfig
	for _, ic := range f.configs {
		if ic.Enabled() {
			out = append(out, ic)
		}
	}
	return out, nil
}

func (f *fakeIntegrationRepo) FindAll(_ context.Context, _ db.DBTX) ([]*rental.IntegrationConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configs, nil
}

func (f *fakeIntegrationRepo) MarkSyncSuccess(_ context.Context, _ db.DBTX, id uuid.UUID, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synced[id] = now
	f.stale[id] = 0
	return nil
}

func (f *fakeIntegrationRepo) IncrementStale(_ context.Context, _ db.DBTX, id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stale[id]++
	return f.stale[id], nil
}

var (
	_ usecase.VoucherRepository     = (*fakeVoucherRepo)(nil)
	_ usecase.GrantRepository       = (*fakeGrantRepo)(nil)
	_ usecase.RetryQueueRepository  = (*fakeQueueRepo)(nil)
	_ usecase.AuditUseCase          = (*fakeAudit)(nil)
	_ usecase.EventRepository       = (*fakeEventRepo)(nil)
	_ usecase.IntegrationRepository = (*fakeIntegrationRepo)(nil)
	_ usecase.UnitOfWork            = fakeUOW{}
)
