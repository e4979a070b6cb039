package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appledger "github.com/vetiver-net/vetiver/internal/application/ledger"
	instanceDomain "github.com/vetiver-net/vetiver/internal/domain/instance"
	ledgerDomain "github.com/vetiver-net/vetiver/internal/domain/ledger"
	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

type fakeInstanceRepo struct {
	instances map[uint]*instanceDomain.Instance
}

func (f *fakeInstanceRepo) Create(ctx context.Context, inst *instanceDomain.Instance) error {
	f.instances[inst.ID()] = inst
	return nil
}

func (f *fakeInstanceRepo) GetByID(ctx context.Context, id uint) (*instanceDomain.Instance, error) {
	inst, ok := f.instances[id]
	if !ok {
		return nil, errors.NewNotFoundError("instance not found")
	}
	return inst, nil
}

func (f *fakeInstanceRepo) ListByUserID(ctx context.Context, userID uint) ([]*instanceDomain.Instance, error) {
	return nil, nil
}

func (f *fakeInstanceRepo) ListByUserIDAndStatus(ctx context.Context, userID uint, status instanceDomain.Status) ([]*instanceDomain.Instance, error) {
	return nil, nil
}

func (f *fakeInstanceRepo) CountByPanelID(ctx context.Context, panelID uint) (int64, error) {
	return 0, nil
}

func (f *fakeInstanceRepo) Update(ctx context.Context, inst *instanceDomain.Instance) error {
	f.instances[inst.ID()] = inst
	return nil
}

func (f *fakeInstanceRepo) Delete(ctx context.Context, id uint) error {
	delete(f.instances, id)
	return nil
}

type fakeNodeRepo struct {
	nodes map[uint]*nodeDomain.Node
}

func (f *fakeNodeRepo) Create(ctx context.Context, n *nodeDomain.Node) error { return nil }
func (f *fakeNodeRepo) GetByID(ctx context.Context, id uint) (*nodeDomain.Node, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, errors.NewNotFoundError("node not found")
	}
	return n, nil
}
func (f *fakeNodeRepo) GetByName(ctx context.Context, name string) (*nodeDomain.Node, error) {
	return nil, errors.NewNotFoundError("node not found")
}
func (f *fakeNodeRepo) ListActive(ctx context.Context) ([]*nodeDomain.Node, error) { return nil, nil }
func (f *fakeNodeRepo) Update(ctx context.Context, n *nodeDomain.Node) error       { return nil }

type fakeUserRepo struct {
	users map[uint]*userDomain.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *userDomain.User) error { return nil }
func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (*userDomain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.NewNotFoundError("user not found")
	}
	return u, nil
}
func (f *fakeUserRepo) Update(ctx context.Context, u *userDomain.User) error { return nil }
func (f *fakeUserRepo) UpdateBalance(ctx context.Context, id uint, delta int64) error {
	u, ok := f.users[id]
	if !ok {
		return errors.NewNotFoundError("user not found")
	}
	u.ApplyBalanceDelta(delta)
	return nil
}

// fakeLedger records posted commands and applies the delta to the fake user
// store, mirroring what the real ledger service commits.
type fakeLedger struct {
	users  *fakeUserRepo
	posted []appledger.CreateTransactionCommand
	fail   error
}

func (f *fakeLedger) CreateTransaction(ctx context.Context, cmd appledger.CreateTransactionCommand) (*ledgerDomain.Transaction, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	u, err := f.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	tx, err := ledgerDomain.NewTransaction(cmd.UserID, cmd.Amount, cmd.Type, cmd.Reason, u.Balance(), cmd.Description)
	if err != nil {
		return nil, err
	}
	if err := f.users.UpdateBalance(ctx, cmd.UserID, tx.SignedAmount()); err != nil {
		return nil, err
	}
	f.posted = append(f.posted, cmd)
	return tx, nil
}

type billingFixture struct {
	engine    *Engine
	instances *fakeInstanceRepo
	nodes     *fakeNodeRepo
	users     *fakeUserRepo
	ledger    *fakeLedger
}

func newBillingFixture(t *testing.T, balance int64, pricePerGiB int64, multiplier float64) *billingFixture {
	t.Helper()
	now := time.Now().UTC()

	users := &fakeUserRepo{users: map[uint]*userDomain.User{
		1: userDomain.ReconstructUser(1, "user@example.com", balance, 0, multiplier, 0, false, false, now, now),
	}}
	nodes := &fakeNodeRepo{nodes: map[uint]*nodeDomain.Node{
		2: nodeDomain.ReconstructNode(2, "node-a", "10.0.0.2", 9100, pricePerGiB, true, 10, 1,
			nodeDomain.AgentStatusOnline, &now, "node_token", now, now),
	}}

	container := "docker-abc"
	provisioned := "prov-42"
	instances := &fakeInstanceRepo{instances: map[uint]*instanceDomain.Instance{
		3: instanceDomain.ReconstructInstance(3, 1, 2, 4, instanceDomain.StatusRunning,
			&container, &provisioned, 0, nil, nil, 1, now, now),
	}}

	ledger := &fakeLedger{users: users}
	return &billingFixture{
		engine:    NewEngine(instances, nodes, users, ledger, logger.NewLogger()),
		instances: instances,
		nodes:     nodes,
		users:     users,
		ledger:    ledger,
	}
}

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		name       string
		usage      uint64
		price      int64
		multiplier float64
		want       int64
	}{
		{"one byte rounds up to one unit", 1, 100, 1.0, 1},
		{"exactly one GiB", 1 << 30, 100, 1.0, 100},
		{"half GiB", 1 << 29, 100, 1.0, 50},
		{"multiplier scales up", 1 << 30, 100, 1.5, 150},
		{"multiplier scales down with round up", 1, 100, 0.5, 1},
		{"zero usage costs nothing", 0, 100, 1.0, 0},
		{"zero price costs nothing", 1 << 30, 0, 1.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateCost(tt.usage, tt.price, tt.multiplier))
		})
	}
}

func TestEndToEndBillingScenario(t *testing.T) {
	fx := newBillingFixture(t, 1000, 100, 1.0)
	ctx := context.Background()

	// First report: 1 GiB cumulative.
	summary := fx.engine.ProcessUsageReport(ctx, []UsageRecord{{InstanceID: 3, TotalUsageBytes: 1 << 30}})
	assert.Equal(t, ReportSummary{Processed: 1, Billed: 1}, summary)

	require.Len(t, fx.ledger.posted, 1)
	assert.Equal(t, int64(100), fx.ledger.posted[0].Amount)
	assert.Equal(t, ledgerDomain.TypeDebit, fx.ledger.posted[0].Type)
	assert.Equal(t, ledgerDomain.ReasonServiceUsage, fx.ledger.posted[0].Reason)

	u, _ := fx.users.GetByID(ctx, 1)
	assert.Equal(t, int64(900), u.Balance())
	inst, _ := fx.instances.GetByID(ctx, 3)
	assert.Equal(t, uint64(1<<30), inst.LastBilledUsage())

	// Second identical report: cumulative unchanged, nothing billed.
	summary = fx.engine.ProcessUsageReport(ctx, []UsageRecord{{InstanceID: 3, TotalUsageBytes: 1 << 30}})
	assert.Equal(t, ReportSummary{Processed: 1, Skipped: 1}, summary)
	assert.Len(t, fx.ledger.posted, 1)

	// Third report: cumulative doubled, only the delta is billed.
	summary = fx.engine.ProcessUsageReport(ctx, []UsageRecord{{InstanceID: 3, TotalUsageBytes: 1 << 31}})
	assert.Equal(t, ReportSummary{Processed: 1, Billed: 1}, summary)
	require.Len(t, fx.ledger.posted, 2)
	assert.Equal(t, int64(100), fx.ledger.posted[1].Amount)

	u, _ = fx.users.GetByID(ctx, 1)
	assert.Equal(t, int64(800), u.Balance())
}

func TestOneByteBillsAtLeastOneUnit(t *testing.T) {
	fx := newBillingFixture(t, 1000, 100, 1.0)

	summary := fx.engine.ProcessUsageReport(context.Background(),
		[]UsageRecord{{InstanceID: 3, TotalUsageBytes: 1}})

	assert.Equal(t, 1, summary.Billed)
	require.Len(t, fx.ledger.posted, 1)
	assert.Equal(t, int64(1), fx.ledger.posted[0].Amount)
}

func TestNonRunningInstancesAreSkipped(t *testing.T) {
	fx := newBillingFixture(t, 1000, 100, 1.0)
	inst, _ := fx.instances.GetByID(context.Background(), 3)
	require.NoError(t, inst.PauseBySystem())

	summary := fx.engine.ProcessUsageReport(context.Background(),
		[]UsageRecord{{InstanceID: 3, TotalUsageBytes: 1 << 30}})

	assert.Equal(t, ReportSummary{Processed: 1, Skipped: 1}, summary)
	assert.Empty(t, fx.ledger.posted)
}

func TestWatermarkStaysOnLedgerFailure(t *testing.T) {
	fx := newBillingFixture(t, 1000, 100, 1.0)
	fx.ledger.fail = errors.NewInternalError("ledger unavailable")

	summary := fx.engine.ProcessUsageReport(context.Background(),
		[]UsageRecord{{InstanceID: 3, TotalUsageBytes: 1 << 30}})

	assert.Equal(t, ReportSummary{Processed: 1, Failed: 1}, summary)
	inst, _ := fx.instances.GetByID(context.Background(), 3)
	assert.Equal(t, uint64(0), inst.LastBilledUsage(), "watermark must not advance without a committed debit")
}

// racingInstanceRepo simulates a solvency pause landing between the ledger
// debit and the watermark save: the first Update loses the version check and
// the stored row is already paused, with a bumped version and the old
// watermark.
type racingInstanceRepo struct {
	*fakeInstanceRepo
	raced bool
}

func (r *racingInstanceRepo) Update(ctx context.Context, inst *instanceDomain.Instance) error {
	if !r.raced {
		r.raced = true
		old := r.instances[inst.ID()]
		now := time.Now().UTC()
		r.instances[inst.ID()] = instanceDomain.ReconstructInstance(
			old.ID(), old.UserID(), old.NodeID(), old.PanelID(),
			instanceDomain.StatusPausedBySystem,
			old.ContainerDockerID(), old.ProvisionedInstanceID(),
			0, nil, nil, old.Version()+1, now, now)
		return errors.NewConflictError("instance was modified concurrently")
	}
	return r.fakeInstanceRepo.Update(ctx, inst)
}

func TestWatermarkAdvancesAfterSolvencyPauseRace(t *testing.T) {
	// The debit itself can push the balance low enough that the solvency
	// check pauses the instance before the watermark save lands. The
	// committed debit must still advance the watermark, or the same delta
	// gets billed again once the instance resumes.
	fx := newBillingFixture(t, 50, 100, 1.0)
	racing := &racingInstanceRepo{fakeInstanceRepo: fx.instances}
	engine := NewEngine(racing, fx.nodes, fx.users, fx.ledger, logger.NewLogger())

	summary := engine.ProcessUsageReport(context.Background(),
		[]UsageRecord{{InstanceID: 3, TotalUsageBytes: 1 << 30}})

	assert.Equal(t, ReportSummary{Processed: 1, Billed: 1}, summary)
	require.Len(t, fx.ledger.posted, 1)

	inst, err := fx.instances.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, instanceDomain.StatusPausedBySystem, inst.Status(),
		"the concurrent pause must survive the watermark retry")
	assert.Equal(t, uint64(1<<30), inst.LastBilledUsage())

	// A repeat report with the same cumulative value bills nothing.
	summary = engine.ProcessUsageReport(context.Background(),
		[]UsageRecord{{InstanceID: 3, TotalUsageBytes: 1 << 30}})
	assert.Equal(t, ReportSummary{Processed: 1, Skipped: 1}, summary)
	assert.Len(t, fx.ledger.posted, 1)
}

func TestBatchIsolatesFailures(t *testing.T) {
	fx := newBillingFixture(t, 1000, 100, 1.0)

	summary := fx.engine.ProcessUsageReport(context.Background(), []UsageRecord{
		{InstanceID: 99, TotalUsageBytes: 1 << 30}, // unknown instance
		{InstanceID: 3, TotalUsageBytes: 1 << 30},
	})

	assert.Equal(t, ReportSummary{Processed: 2, Billed: 1, Failed: 1}, summary)
	assert.Len(t, fx.ledger.posted, 1)
}

func TestUsageDebitMayOverdraw(t *testing.T) {
	// Balance 50, charge 100: service usage debits are unconditional.
	fx := newBillingFixture(t, 50, 100, 1.0)

	summary := fx.engine.ProcessUsageReport(context.Background(),
		[]UsageRecord{{InstanceID: 3, TotalUsageBytes: 1 << 30}})

	assert.Equal(t, 1, summary.Billed)
	u, _ := fx.users.GetByID(context.Background(), 1)
	assert.Equal(t, int64(-50), u.Balance())
}
