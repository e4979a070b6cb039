package instance

import (
	"context"
	"fmt"

	"github.com/vetiver-net/vetiver/internal/application/remote"
	instanceDomain "github.com/vetiver-net/vetiver/internal/domain/instance"
	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	panelDomain "github.com/vetiver-net/vetiver/internal/domain/panel"
	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// DeleteInstanceCommand identifies the instance and the requesting user.
type DeleteInstanceCommand struct {
	InstanceID uint
	UserID     uint
}

// DeleteInstanceResult reports which remote cleanup steps failed. The local
// record is gone either way.
type DeleteInstanceResult struct {
	CleanupFailures []string
}

// DeleteInstanceUseCase tears an instance down. Remote cleanup is best-effort
// and ordered: container first, then the panel host entry, then the panel's
// upstream node definition. Every failure is collected and logged, none aborts
// the sequence, and the local hard delete runs last unconditionally so a dead
// node can never wedge a deletion.
type DeleteInstanceUseCase struct {
	instances instanceDomain.Repository
	nodes     nodeDomain.Repository
	panels    panelDomain.Repository
	agent     remote.NodeAgentClient
	panelAPI  remote.PanelClient
	publisher events.EventPublisher
	logger    logger.Interface
}

func NewDeleteInstanceUseCase(
	instances instanceDomain.Repository,
	nodes nodeDomain.Repository,
	panels panelDomain.Repository,
	agent remote.NodeAgentClient,
	panelAPI remote.PanelClient,
	publisher events.EventPublisher,
	logger logger.Interface,
) *DeleteInstanceUseCase {
	return &DeleteInstanceUseCase{
		instances: instances,
		nodes:     nodes,
		panels:    panels,
		agent:     agent,
		panelAPI:  panelAPI,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *DeleteInstanceUseCase) Execute(ctx context.Context, cmd DeleteInstanceCommand) (*DeleteInstanceResult, error) {
	inst, err := loadOwnedInstance(ctx, uc.instances, cmd.InstanceID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	var failures []string
	fail := func(step string, err error) {
		failures = append(failures, fmt.Sprintf("%s: %v", step, err))
		uc.logger.Warnw("cleanup step failed, continuing",
			"instance_id", inst.ID(), "step", step, "error", err)
	}

	n, nodeErr := uc.nodes.GetByID(ctx, inst.NodeID())
	if nodeErr != nil {
		fail("load node", nodeErr)
	} else if handle := provisionedHandle(inst); handle != "" {
		if err := uc.agent.DeprovisionInstance(ctx, nodeRef(n), handle); err != nil {
			fail("deprovision container", err)
		}
	}

	p, panelErr := uc.panels.GetByID(ctx, inst.PanelID())
	if panelErr != nil {
		fail("load panel", panelErr)
	} else {
		if n != nil {
			entry := remote.HostEntry{
				Remark:  hostRemark(inst),
				Address: n.Host(),
				Port:    p.Ports().InboundPort,
			}
			if err := uc.panelAPI.RemoveHost(ctx, p, entry); err != nil {
				fail("remove panel host entry", err)
			}
		}
		if handle := provisionedHandle(inst); handle != "" {
			if err := uc.panelAPI.DeleteUpstreamNode(ctx, p, handle); err != nil {
				fail("delete upstream node definition", err)
			}
		}
	}

	// Local delete is unconditional; nothing above may block it.
	if err := uc.instances.Delete(ctx, inst.ID()); err != nil {
		return nil, err
	}

	if n != nil {
		n.DecrementInstances()
		if err := uc.nodes.Update(ctx, n); err != nil {
			fail("decrement node instance count", err)
		}
	}

	uc.logger.Infow("instance deleted",
		"instance_id", inst.ID(), "user_id", cmd.UserID, "cleanup_failures", len(failures))

	if uc.publisher != nil {
		if err := uc.publisher.Publish(instanceDomain.NewDeletedEvent(inst, failures)); err != nil {
			uc.logger.Warnw("failed to publish deleted event",
				"instance_id", inst.ID(), "error", err)
		}
	}

	return &DeleteInstanceResult{CleanupFailures: failures}, nil
}

// hostRemark is the label used for the instance's host entry on the panel.
func hostRemark(inst *instanceDomain.Instance) string {
	return fmt.Sprintf("vetiver-%d", inst.ID())
}
