package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vetiver-net/vetiver/internal/domain/instance"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/mappers"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
	"github.com/vetiver-net/vetiver/internal/shared/db"
	apperrors "github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

type InstanceRepository struct {
	db     *gorm.DB
	mapper *mappers.InstanceMapper
	logger logger.Interface
}

func NewInstanceRepository(gdb *gorm.DB, logger logger.Interface) instance.Repository {
	return &InstanceRepository{
		db:     gdb,
		mapper: mappers.NewInstanceMapper(),
		logger: logger,
	}
}

func (r *InstanceRepository) Create(ctx context.Context, inst *instance.Instance) error {
	model := r.mapper.ToModel(inst)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	inst.SetID(model.ID)
	inst.SyncVersion()
	return nil
}

func (r *InstanceRepository) GetByID(ctx context.Context, id uint) (*instance.Instance, error) {
	var model models.InstanceModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("instance not found")
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *InstanceRepository) ListByUserID(ctx context.Context, userID uint) ([]*instance.Instance, error) {
	var list []*models.InstanceModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ?", userID).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return r.mapper.ToEntities(list)
}

func (r *InstanceRepository) ListByUserIDAndStatus(ctx context.Context, userID uint, status instance.Status) ([]*instance.Instance, error) {
	var list []*models.InstanceModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ? AND status = ?", userID, string(status)).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list instances by status: %w", err)
	}
	return r.mapper.ToEntities(list)
}

func (r *InstanceRepository) CountByPanelID(ctx context.Context, panelID uint) (int64, error) {
	var count int64
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.InstanceModel{}).
		Where("panel_id = ?", panelID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count instances: %w", err)
	}
	return count, nil
}

// Update persists the aggregate with an optimistic version check against the
// version the row carried when the aggregate was loaded, so any number of
// domain mutations between load and save is one persistence cycle.
func (r *InstanceRepository) Update(ctx context.Context, inst *instance.Instance) error {
	model := r.mapper.ToModel(inst)
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.InstanceModel{}).
		Where("id = ? AND version = ?", model.ID, inst.LoadedVersion()).
		Updates(map[string]interface{}{
			"status":                  model.Status,
			"container_docker_id":     model.ContainerDockerID,
			"provisioned_instance_id": model.ProvisionedInstanceID,
			"last_billed_usage":       model.LastBilledUsage,
			"last_billing_at":         model.LastBillingAt,
			"failure_reason":          model.FailureReason,
			"version":                 model.Version,
			"updated_at":              model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update instance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewConflictError("instance was modified concurrently")
	}
	inst.SyncVersion()
	return nil
}

func (r *InstanceRepository) Delete(ctx context.Context, id uint) error {
	result := db.GetTxFromContext(ctx, r.db).Delete(&models.InstanceModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete instance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("instance not found")
	}
	return nil
}
