package instance

import (
	"context"

	"github.com/vetiver-net/vetiver/internal/application/remote"
	instanceDomain "github.com/vetiver-net/vetiver/internal/domain/instance"
	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// ResumeInstanceCommand identifies the instance and the requesting user.
type ResumeInstanceCommand struct {
	InstanceID uint
	UserID     uint
}

// ResumeInstanceUseCase resumes a user-paused instance. System-paused
// instances are out of the user's reach; only a restored solvency check
// resumes those.
type ResumeInstanceUseCase struct {
	instances instanceDomain.Repository
	nodes     nodeDomain.Repository
	agent     remote.NodeAgentClient
	logger    logger.Interface
}

func NewResumeInstanceUseCase(
	instances instanceDomain.Repository,
	nodes nodeDomain.Repository,
	agent remote.NodeAgentClient,
	logger logger.Interface,
) *ResumeInstanceUseCase {
	return &ResumeInstanceUseCase{
		instances: instances,
		nodes:     nodes,
		agent:     agent,
		logger:    logger,
	}
}

func (uc *ResumeInstanceUseCase) Execute(ctx context.Context, cmd ResumeInstanceCommand) error {
	inst, err := loadOwnedInstance(ctx, uc.instances, cmd.InstanceID, cmd.UserID)
	if err != nil {
		return err
	}

	switch inst.Status() {
	case instanceDomain.StatusPausedByUser:
	case instanceDomain.StatusPausedBySystem:
		return errors.NewForbiddenError("instance is suspended",
			"top up your balance to resume this instance")
	default:
		return errors.NewValidationError("instance is not paused",
			"current status: "+string(inst.Status()))
	}

	n, err := uc.nodes.GetByID(ctx, inst.NodeID())
	if err != nil {
		return err
	}

	if err := uc.agent.ResumeContainer(ctx, nodeRef(n), containerHandle(inst)); err != nil {
		uc.logger.Errorw("agent resume failed, state unchanged",
			"instance_id", inst.ID(), "node_id", n.ID(), "error", err)
		return err
	}

	if err := inst.ResumeByUser(); err != nil {
		return errors.NewValidationError("cannot resume instance", err.Error())
	}
	if err := uc.instances.Update(ctx, inst); err != nil {
		return err
	}

	uc.logger.Infow("instance resumed by user", "instance_id", inst.ID(), "user_id", cmd.UserID)
	return nil
}
