// Package instance holds the lifecycle use cases: user pause/resume, system
// suspend/resume on solvency changes, and deletion with remote cleanup.
package instance

import (
	"context"

	"github.com/vetiver-net/vetiver/internal/application/remote"
	instanceDomain "github.com/vetiver-net/vetiver/internal/domain/instance"
	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// PauseInstanceCommand identifies the instance and the requesting user.
type PauseInstanceCommand struct {
	InstanceID uint
	UserID     uint
}

// PauseInstanceUseCase pauses a running instance on the user's request. The
// container is paused on the node agent first; the state flip only commits
// after the remote call succeeds.
type PauseInstanceUseCase struct {
	instances instanceDomain.Repository
	nodes     nodeDomain.Repository
	agent     remote.NodeAgentClient
	logger    logger.Interface
}

func NewPauseInstanceUseCase(
	instances instanceDomain.Repository,
	nodes nodeDomain.Repository,
	agent remote.NodeAgentClient,
	logger logger.Interface,
) *PauseInstanceUseCase {
	return &PauseInstanceUseCase{
		instances: instances,
		nodes:     nodes,
		agent:     agent,
		logger:    logger,
	}
}

func (uc *PauseInstanceUseCase) Execute(ctx context.Context, cmd PauseInstanceCommand) error {
	inst, err := loadOwnedInstance(ctx, uc.instances, cmd.InstanceID, cmd.UserID)
	if err != nil {
		return err
	}

	if inst.Status() != instanceDomain.StatusRunning {
		return errors.NewValidationError("instance is not running",
			"current status: "+string(inst.Status()))
	}

	n, err := uc.nodes.GetByID(ctx, inst.NodeID())
	if err != nil {
		return err
	}

	if err := uc.agent.PauseContainer(ctx, nodeRef(n), containerHandle(inst)); err != nil {
		uc.logger.Errorw("agent pause failed, state unchanged",
			"instance_id", inst.ID(), "node_id", n.ID(), "error", err)
		return err
	}

	if err := inst.PauseByUser(); err != nil {
		return errors.NewValidationError("cannot pause instance", err.Error())
	}
	if err := uc.instances.Update(ctx, inst); err != nil {
		return err
	}

	uc.logger.Infow("instance paused by user", "instance_id", inst.ID(), "user_id", cmd.UserID)
	return nil
}

// loadOwnedInstance fetches an instance and enforces ownership. Cross-user
// access is reported as not found so instance ids do not leak.
func loadOwnedInstance(ctx context.Context, repo instanceDomain.Repository, instanceID, userID uint) (*instanceDomain.Instance, error) {
	inst, err := repo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.UserID() != userID {
		return nil, errors.NewNotFoundError("instance not found")
	}
	return inst, nil
}

func nodeRef(n *nodeDomain.Node) remote.NodeRef {
	return remote.NodeRef{Addr: n.AgentAddr(), Token: n.EnrollmentToken()}
}

func containerHandle(inst *instanceDomain.Instance) string {
	if inst.ContainerDockerID() == nil {
		return ""
	}
	return *inst.ContainerDockerID()
}

func provisionedHandle(inst *instanceDomain.Instance) string {
	if inst.ProvisionedInstanceID() == nil {
		return ""
	}
	return *inst.ProvisionedInstanceID()
}
