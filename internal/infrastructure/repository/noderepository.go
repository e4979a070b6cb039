package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vetiver-net/vetiver/internal/domain/node"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/mappers"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
	"github.com/vetiver-net/vetiver/internal/shared/db"
	apperrors "github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

type NodeRepository struct {
	db     *gorm.DB
	mapper *mappers.NodeMapper
	logger logger.Interface
}

func NewNodeRepository(gdb *gorm.DB, logger logger.Interface) node.Repository {
	return &NodeRepository{
		db:     gdb,
		mapper: mappers.NewNodeMapper(),
		logger: logger,
	}
}

func (r *NodeRepository) Create(ctx context.Context, n *node.Node) error {
	model := r.mapper.ToModel(n)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("node name already exists")
		}
		return fmt.Errorf("failed to create node: %w", err)
	}
	n.SetID(model.ID)
	return nil
}

func (r *NodeRepository) GetByID(ctx context.Context, id uint) (*node.Node, error) {
	var model models.NodeModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("node not found")
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return r.mapper.ToEntity(&model), nil
}

func (r *NodeRepository) GetByName(ctx context.Context, name string) (*node.Node, error) {
	var model models.NodeModel
	if err := db.GetTxFromContext(ctx, r.db).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("node not found")
		}
		return nil, fmt.Errorf("failed to get node by name: %w", err)
	}
	return r.mapper.ToEntity(&model), nil
}

// ListActive returns every node that is not offline. The health and usage
// loops iterate over this set.
func (r *NodeRepository) ListActive(ctx context.Context) ([]*node.Node, error) {
	var list []*models.NodeModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("agent_status <> ?", string(node.AgentStatusOffline)).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return r.mapper.ToEntities(list), nil
}

func (r *NodeRepository) Update(ctx context.Context, n *node.Node) error {
	model := r.mapper.ToModel(n)
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.NodeModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"price":          model.Price,
			"available":      model.Available,
			"capacity":       model.Capacity,
			"instance_count": model.InstanceCount,
			"agent_status":   model.AgentStatus,
			"last_seen_at":   model.LastSeenAt,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update node: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("node not found")
	}
	return nil
}
