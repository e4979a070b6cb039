package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vetiver-net/vetiver/internal/domain/panel"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/mappers"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
	"github.com/vetiver-net/vetiver/internal/shared/db"
	apperrors "github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

type PanelRepository struct {
	db     *gorm.DB
	mapper *mappers.PanelMapper
	logger logger.Interface
}

func NewPanelRepository(gdb *gorm.DB, logger logger.Interface) panel.Repository {
	return &PanelRepository{
		db:     gdb,
		mapper: mappers.NewPanelMapper(),
		logger: logger,
	}
}

func (r *PanelRepository) Create(ctx context.Context, p *panel.Panel) error {
	model := r.mapper.ToModel(p)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("panel already registered")
		}
		return fmt.Errorf("failed to create panel: %w", err)
	}
	p.SetID(model.ID)
	return nil
}

func (r *PanelRepository) GetByID(ctx context.Context, id uint) (*panel.Panel, error) {
	var model models.PanelModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("panel not found")
		}
		return nil, fmt.Errorf("failed to get panel: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *PanelRepository) GetByCertificateKey(ctx context.Context, key string) (*panel.Panel, error) {
	var model models.PanelModel
	if err := db.GetTxFromContext(ctx, r.db).Where("certificate_key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("panel not found")
		}
		return nil, fmt.Errorf("failed to get panel by certificate key: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *PanelRepository) ListByUserID(ctx context.Context, userID uint) ([]*panel.Panel, error) {
	var list []*models.PanelModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ?", userID).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list panels: %w", err)
	}
	return r.mapper.ToEntities(list)
}

// ListAllocatedPorts flattens the three port columns of every live panel into
// one slice for the allocator's scan. The query goes through Table, which
// skips gorm's soft-delete scope, so deleted panels are excluded explicitly;
// that exclusion is what returns their ports to the pool.
func (r *PanelRepository) ListAllocatedPorts(ctx context.Context) ([]int, error) {
	var rows []struct {
		XrayPort    int
		APIPort     int
		InboundPort int
	}
	if err := db.GetTxFromContext(ctx, r.db).
		Table("panels").
		Scopes(db.NotDeleted()).
		Select("xray_port", "api_port", "inbound_port").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list allocated ports: %w", err)
	}
	ports := make([]int, 0, len(rows)*3)
	for _, row := range rows {
		ports = append(ports, row.XrayPort, row.APIPort, row.InboundPort)
	}
	return ports, nil
}

func (r *PanelRepository) Update(ctx context.Context, p *panel.Panel) error {
	model := r.mapper.ToModel(p)
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PanelModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"sealed_credentials": model.SealedCredentials,
			"access_token":       model.AccessToken,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update panel: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("panel not found")
	}
	return nil
}

func (r *PanelRepository) SoftDelete(ctx context.Context, id uint) error {
	result := db.GetTxFromContext(ctx, r.db).Delete(&models.PanelModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete panel: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("panel not found")
	}
	return nil
}
