package panel

import (
	"context"

	instanceDomain "github.com/vetiver-net/vetiver/internal/domain/instance"
	panelDomain "github.com/vetiver-net/vetiver/internal/domain/panel"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// DeletePanelCommand identifies the panel and the requesting user.
type DeletePanelCommand struct {
	PanelID uint
	UserID  uint
}

// DeletePanelUseCase soft-deletes a panel. Its ports return to the pool
// because the allocator only scans live rows. A panel with instances still
// attached cannot be removed.
type DeletePanelUseCase struct {
	panels    panelDomain.Repository
	instances instanceDomain.Repository
	logger    logger.Interface
}

func NewDeletePanelUseCase(
	panels panelDomain.Repository,
	instances instanceDomain.Repository,
	logger logger.Interface,
) *DeletePanelUseCase {
	return &DeletePanelUseCase{
		panels:    panels,
		instances: instances,
		logger:    logger,
	}
}

func (uc *DeletePanelUseCase) Execute(ctx context.Context, cmd DeletePanelCommand) error {
	p, err := uc.panels.GetByID(ctx, cmd.PanelID)
	if err != nil {
		return err
	}
	if p.UserID() != cmd.UserID {
		return errors.NewNotFoundError("panel not found")
	}

	count, err := uc.instances.CountByPanelID(ctx, cmd.PanelID)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.NewConflictError("panel has active instances",
			"delete the instances before removing the panel")
	}

	if err := uc.panels.SoftDelete(ctx, cmd.PanelID); err != nil {
		return err
	}

	uc.logger.Infow("panel deleted", "panel_id", cmd.PanelID, "user_id", cmd.UserID)
	return nil
}
