package instance

import (
	"context"

	"github.com/vetiver-net/vetiver/internal/application/remote"
	instanceDomain "github.com/vetiver-net/vetiver/internal/domain/instance"
	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// SolvencyCheckUseCase suspends or reinstates a user's instances based on
// (balance + credit). It runs after every committed ledger entry.
//
// The check is idempotent: suspension only touches running instances and
// reinstatement only touches system-paused ones, so repeated runs while the
// balance stays on one side of zero are no-ops. User-paused instances are
// never resumed here.
type SolvencyCheckUseCase struct {
	users     userDomain.Repository
	instances instanceDomain.Repository
	nodes     nodeDomain.Repository
	agent     remote.NodeAgentClient
	publisher events.EventPublisher
	logger    logger.Interface
}

func NewSolvencyCheckUseCase(
	users userDomain.Repository,
	instances instanceDomain.Repository,
	nodes nodeDomain.Repository,
	agent remote.NodeAgentClient,
	publisher events.EventPublisher,
	logger logger.Interface,
) *SolvencyCheckUseCase {
	return &SolvencyCheckUseCase{
		users:     users,
		instances: instances,
		nodes:     nodes,
		agent:     agent,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute re-evaluates one user. Each instance is handled independently; an
// agent failure on one leaves it for the next check and never blocks the rest.
func (uc *SolvencyCheckUseCase) Execute(ctx context.Context, userID uint) error {
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if u.IsSolvent() {
		return uc.reinstate(ctx, u)
	}
	return uc.suspend(ctx, u)
}

func (uc *SolvencyCheckUseCase) suspend(ctx context.Context, u *userDomain.User) error {
	running, err := uc.instances.ListByUserIDAndStatus(ctx, u.ID(), instanceDomain.StatusRunning)
	if err != nil {
		return err
	}
	if len(running) == 0 {
		return nil
	}

	uc.logger.Warnw("user insolvent, suspending instances",
		"user_id", u.ID(), "balance", u.Balance(), "credit", u.Credit(), "count", len(running))

	for _, inst := range running {
		if err := uc.pauseOne(ctx, inst); err != nil {
			uc.logger.Errorw("failed to suspend instance",
				"instance_id", inst.ID(), "user_id", u.ID(), "error", err)
		}
	}
	return nil
}

func (uc *SolvencyCheckUseCase) reinstate(ctx context.Context, u *userDomain.User) error {
	suspended, err := uc.instances.ListByUserIDAndStatus(ctx, u.ID(), instanceDomain.StatusPausedBySystem)
	if err != nil {
		return err
	}
	if len(suspended) == 0 {
		return nil
	}

	uc.logger.Infow("user solvent again, resuming suspended instances",
		"user_id", u.ID(), "count", len(suspended))

	for _, inst := range suspended {
		if err := uc.resumeOne(ctx, inst); err != nil {
			uc.logger.Errorw("failed to resume instance",
				"instance_id", inst.ID(), "user_id", u.ID(), "error", err)
		}
	}
	return nil
}

func (uc *SolvencyCheckUseCase) pauseOne(ctx context.Context, inst *instanceDomain.Instance) error {
	n, err := uc.nodes.GetByID(ctx, inst.NodeID())
	if err != nil {
		return err
	}
	if err := uc.agent.PauseContainer(ctx, nodeRef(n), containerHandle(inst)); err != nil {
		return err
	}
	if err := inst.PauseBySystem(); err != nil {
		return err
	}
	if err := uc.instances.Update(ctx, inst); err != nil {
		return err
	}
	uc.publish(inst, instanceDomain.NewSuspendedEvent(inst))
	return nil
}

func (uc *SolvencyCheckUseCase) resumeOne(ctx context.Context, inst *instanceDomain.Instance) error {
	n, err := uc.nodes.GetByID(ctx, inst.NodeID())
	if err != nil {
		return err
	}
	if err := uc.agent.ResumeContainer(ctx, nodeRef(n), containerHandle(inst)); err != nil {
		return err
	}
	if err := inst.ResumeBySystem(); err != nil {
		return err
	}
	if err := uc.instances.Update(ctx, inst); err != nil {
		return err
	}
	uc.publish(inst, instanceDomain.NewResumedEvent(inst))
	return nil
}

func (uc *SolvencyCheckUseCase) publish(inst *instanceDomain.Instance, event events.DomainEvent) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(event); err != nil {
		uc.logger.Warnw("failed to publish instance event",
			"instance_id", inst.ID(), "event", event.GetEventType(), "error", err)
	}
}
