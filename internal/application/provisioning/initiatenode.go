// Package provisioning orchestrates the creation of new instances on nodes.
package provisioning

import (
	"context"

	"github.com/vetiver-net/vetiver/internal/application/remote"
	instanceDomain "github.com/vetiver-net/vetiver/internal/domain/instance"
	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	panelDomain "github.com/vetiver-net/vetiver/internal/domain/panel"
	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// InitiateNodeCommand asks for a new instance of a panel on a node.
type InitiateNodeCommand struct {
	UserID  uint
	NodeID  uint
	PanelID uint
}

// InitiateNodeResult carries the created instance's identifiers.
type InitiateNodeResult struct {
	InstanceID        uint   `json:"instance_id"`
	Status            string `json:"status"`
	ContainerDockerID string `json:"container_docker_id,omitempty"`
}

// InitiateNodeUseCase provisions a container on a node for a user's panel.
// The instance row is persisted in provisioning before the agent call so a
// crash mid-provision leaves a queryable trace instead of an orphan container
// with no record.
type InitiateNodeUseCase struct {
	users     userDomain.Repository
	nodes     nodeDomain.Repository
	panels    panelDomain.Repository
	instances instanceDomain.Repository
	agent     remote.NodeAgentClient
	publisher events.EventPublisher
	logger    logger.Interface
}

func NewInitiateNodeUseCase(
	users userDomain.Repository,
	nodes nodeDomain.Repository,
	panels panelDomain.Repository,
	instances instanceDomain.Repository,
	agent remote.NodeAgentClient,
	publisher events.EventPublisher,
	logger logger.Interface,
) *InitiateNodeUseCase {
	return &InitiateNodeUseCase{
		users:     users,
		nodes:     nodes,
		panels:    panels,
		instances: instances,
		agent:     agent,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *InitiateNodeUseCase) Execute(ctx context.Context, cmd InitiateNodeCommand) (*InitiateNodeResult, error) {
	u, err := uc.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if u.IsFlagged() {
		return nil, errors.NewForbiddenError("account is disabled")
	}

	n, err := uc.nodes.GetByID(ctx, cmd.NodeID)
	if err != nil {
		return nil, err
	}
	if n.AgentStatus() != nodeDomain.AgentStatusOnline {
		return nil, errors.NewValidationError("node agent is not online",
			"agent status: "+string(n.AgentStatus()))
	}
	if !n.HasCapacity() {
		return nil, errors.NewValidationError("node has no free capacity")
	}

	p, err := uc.panels.GetByID(ctx, cmd.PanelID)
	if err != nil {
		return nil, err
	}
	if p.UserID() != cmd.UserID {
		return nil, errors.NewNotFoundError("panel not found")
	}

	inst, err := instanceDomain.NewInstance(cmd.UserID, cmd.NodeID, cmd.PanelID)
	if err != nil {
		return nil, errors.NewValidationError("invalid instance", err.Error())
	}
	if err := uc.instances.Create(ctx, inst); err != nil {
		return nil, err
	}

	ports := p.Ports()
	result, provisionErr := uc.agent.ProvisionContainer(ctx, remote.NodeRef{
		Addr:  n.AgentAddr(),
		Token: n.EnrollmentToken(),
	}, remote.ProvisionSpec{
		InstanceID:  inst.ID(),
		UserID:      cmd.UserID,
		PanelURL:    p.URL(),
		XrayPort:    ports.XrayPort,
		APIPort:     ports.APIPort,
		InboundPort: ports.InboundPort,
	})
	if provisionErr != nil {
		return nil, uc.failInstance(ctx, inst, provisionErr)
	}

	if err := inst.Finalize(result.ContainerID, result.ProvisionedInstanceID); err != nil {
		return nil, uc.failInstance(ctx, inst, err)
	}
	if err := uc.instances.Update(ctx, inst); err != nil {
		return nil, err
	}

	n.IncrementInstances()
	if err := uc.nodes.Update(ctx, n); err != nil {
		uc.logger.Warnw("failed to update node instance count",
			"node_id", n.ID(), "error", err)
	}

	uc.logger.Infow("instance provisioned",
		"instance_id", inst.ID(), "user_id", cmd.UserID, "node_id", n.ID(),
		"container", result.ContainerID)

	if uc.publisher != nil {
		if err := uc.publisher.Publish(instanceDomain.NewProvisionedEvent(inst)); err != nil {
			uc.logger.Warnw("failed to publish provisioned event",
				"instance_id", inst.ID(), "error", err)
		}
	}

	return &InitiateNodeResult{
		InstanceID:        inst.ID(),
		Status:            string(inst.Status()),
		ContainerDockerID: result.ContainerID,
	}, nil
}

// failInstance marks the instance failed and keeps the record for diagnostics.
// The original provisioning error is what the caller sees.
func (uc *InitiateNodeUseCase) failInstance(ctx context.Context, inst *instanceDomain.Instance, cause error) error {
	uc.logger.Errorw("provisioning failed",
		"instance_id", inst.ID(), "node_id", inst.NodeID(), "error", cause)

	if err := inst.MarkFailed(cause.Error()); err != nil {
		uc.logger.Errorw("failed to mark instance failed",
			"instance_id", inst.ID(), "error", err)
	} else if err := uc.instances.Update(ctx, inst); err != nil {
		uc.logger.Errorw("failed to persist failed instance",
			"instance_id", inst.ID(), "error", err)
	}

	if uc.publisher != nil {
		if err := uc.publisher.Publish(instanceDomain.NewFailedEvent(inst, cause.Error())); err != nil {
			uc.logger.Warnw("failed to publish provision failed event",
				"instance_id", inst.ID(), "error", err)
		}
	}

	if errors.IsAppError(cause) {
		return cause
	}
	return errors.NewUpstreamError("provisioning failed", false, cause.Error())
}
