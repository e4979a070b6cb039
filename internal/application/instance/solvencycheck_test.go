package instance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetiver-net/vetiver/internal/application/remote"
	instanceDomain "github.com/vetiver-net/vetiver/internal/domain/instance"
	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

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
	var out []*instanceDomain.Instance
	for _, inst := range f.instances {
		if inst.UserID() == userID {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (f *fakeInstanceRepo) ListByUserIDAndStatus(ctx context.Context, userID uint, status instanceDomain.Status) ([]*instanceDomain.Instance, error) {
	var out []*instanceDomain.Instance
	for _, inst := range f.instances {
		if inst.UserID() == userID && inst.Status() == status {
			out = append(out, inst)
		}
	}
	return out, nil
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

// fakeAgent records pause/resume calls by container handle and can be told to
// fail for specific handles.
type fakeAgent struct {
	paused  []string
	resumed []string
	failFor map[string]error
}

func (f *fakeAgent) ProvisionContainer(ctx context.Context, ref remote.NodeRef, spec remote.ProvisionSpec) (*remote.ProvisionResult, error) {
	return nil, errors.NewInternalError("not implemented")
}

func (f *fakeAgent) PauseContainer(ctx context.Context, ref remote.NodeRef, containerID string) error {
	if err := f.failFor[containerID]; err != nil {
		return err
	}
	f.paused = append(f.paused, containerID)
	return nil
}

func (f *fakeAgent) ResumeContainer(ctx context.Context, ref remote.NodeRef, containerID string) error {
	if err := f.failFor[containerID]; err != nil {
		return err
	}
	f.resumed = append(f.resumed, containerID)
	return nil
}

func (f *fakeAgent) DeprovisionInstance(ctx context.Context, ref remote.NodeRef, provisionedInstanceID string) error {
	return nil
}

func (f *fakeAgent) GetUsage(ctx context.Context, ref remote.NodeRef) ([]remote.UsageSample, error) {
	return nil, nil
}

func (f *fakeAgent) Ping(ctx context.Context, ref remote.NodeRef) error { return nil }

func runningInstance(id, userID uint, container string) *instanceDomain.Instance {
	now := time.Now().UTC()
	provisioned := "prov-" + container
	return instanceDomain.ReconstructInstance(id, userID, 2, 4, instanceDomain.StatusRunning,
		&container, &provisioned, 0, nil, nil, 1, now, now)
}

func instanceWithStatus(id, userID uint, container string, status instanceDomain.Status) *instanceDomain.Instance {
	now := time.Now().UTC()
	provisioned := "prov-" + container
	return instanceDomain.ReconstructInstance(id, userID, 2, 4, status,
		&container, &provisioned, 0, nil, nil, 1, now, now)
}

type solvencyFixture struct {
	uc        *SolvencyCheckUseCase
	users     *fakeUserRepo
	instances *fakeInstanceRepo
	agent     *fakeAgent
}

func newSolvencyFixture(t *testing.T, balance, credit int64) *solvencyFixture {
	t.Helper()
	now := time.Now().UTC()

	users := &fakeUserRepo{users: map[uint]*userDomain.User{
		1: userDomain.ReconstructUser(1, "user@example.com", balance, credit, 1.0, 0, false, false, now, now),
	}}
	nodes := &fakeNodeRepo{nodes: map[uint]*nodeDomain.Node{
		2: nodeDomain.ReconstructNode(2, "node-a", "10.0.0.2", 9100, 100, true, 10, 1,
			nodeDomain.AgentStatusOnline, &now, "node_token", now, now),
	}}
	instances := &fakeInstanceRepo{instances: map[uint]*instanceDomain.Instance{}}
	agent := &fakeAgent{failFor: map[string]error{}}

	return &solvencyFixture{
		uc:        NewSolvencyCheckUseCase(users, instances, nodes, agent, nil, logger.NewLogger()),
		users:     users,
		instances: instances,
		agent:     agent,
	}
}

func TestInsolventUserIsSuspended(t *testing.T) {
	fx := newSolvencyFixture(t, -50, 0)
	fx.instances.instances[10] = runningInstance(10, 1, "c-10")
	fx.instances.instances[11] = runningInstance(11, 1, "c-11")
	fx.instances.instances[12] = instanceWithStatus(12, 1, "c-12", instanceDomain.StatusPausedByUser)

	require.NoError(t, fx.uc.Execute(context.Background(), 1))

	assert.Equal(t, instanceDomain.StatusPausedBySystem, fx.instances.instances[10].Status())
	assert.Equal(t, instanceDomain.StatusPausedBySystem, fx.instances.instances[11].Status())
	assert.Equal(t, instanceDomain.StatusPausedByUser, fx.instances.instances[12].Status(),
		"user-paused instances stay out of the solvency path")
	assert.ElementsMatch(t, []string{"c-10", "c-11"}, fx.agent.paused)
}

func TestCreditKeepsUserSolvent(t *testing.T) {
	// balance -50 but credit 100: balance + credit > 0.
	fx := newSolvencyFixture(t, -50, 100)
	fx.instances.instances[10] = runningInstance(10, 1, "c-10")

	require.NoError(t, fx.uc.Execute(context.Background(), 1))

	assert.Equal(t, instanceDomain.StatusRunning, fx.instances.instances[10].Status())
	assert.Empty(t, fx.agent.paused)
}

func TestZeroBalanceIsInsolvent(t *testing.T) {
	fx := newSolvencyFixture(t, 0, 0)
	fx.instances.instances[10] = runningInstance(10, 1, "c-10")

	require.NoError(t, fx.uc.Execute(context.Background(), 1))

	assert.Equal(t, instanceDomain.StatusPausedBySystem, fx.instances.instances[10].Status())
}

func TestSolventUserIsReinstated(t *testing.T) {
	fx := newSolvencyFixture(t, 500, 0)
	fx.instances.instances[10] = instanceWithStatus(10, 1, "c-10", instanceDomain.StatusPausedBySystem)
	fx.instances.instances[11] = instanceWithStatus(11, 1, "c-11", instanceDomain.StatusPausedByUser)

	require.NoError(t, fx.uc.Execute(context.Background(), 1))

	assert.Equal(t, instanceDomain.StatusRunning, fx.instances.instances[10].Status())
	assert.Equal(t, instanceDomain.StatusPausedByUser, fx.instances.instances[11].Status(),
		"reinstatement never resumes a user pause")
	assert.Equal(t, []string{"c-10"}, fx.agent.resumed)
}

func TestSolvencyCheckIsIdempotent(t *testing.T) {
	fx := newSolvencyFixture(t, -50, 0)
	fx.instances.instances[10] = runningInstance(10, 1, "c-10")

	require.NoError(t, fx.uc.Execute(context.Background(), 1))
	require.NoError(t, fx.uc.Execute(context.Background(), 1))

	assert.Len(t, fx.agent.paused, 1, "second run must not touch the agent again")
}

func TestAgentFailureDoesNotBlockOtherInstances(t *testing.T) {
	fx := newSolvencyFixture(t, -50, 0)
	fx.instances.instances[10] = runningInstance(10, 1, "c-10")
	fx.instances.instances[11] = runningInstance(11, 1, "c-11")
	fx.agent.failFor["c-10"] = errors.NewUpstreamError("agent unreachable", true)

	require.NoError(t, fx.uc.Execute(context.Background(), 1))

	assert.Equal(t, instanceDomain.StatusRunning, fx.instances.instances[10].Status(),
		"state is not flipped when the agent call fails")
	assert.Equal(t, instanceDomain.StatusPausedBySystem, fx.instances.instances[11].Status())
}

func TestUnknownUserSurfacesError(t *testing.T) {
	fx := newSolvencyFixture(t, 100, 0)
	err := fx.uc.Execute(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}
