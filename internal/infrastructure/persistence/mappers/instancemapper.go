package mappers

import (
	"fmt"

	"github.com/vetiver-net/vetiver/internal/domain/instance"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
)

// InstanceMapper handles the conversion between domain entities and persistence models
type InstanceMapper struct{}

func NewInstanceMapper() *InstanceMapper {
	return &InstanceMapper{}
}

func (m *InstanceMapper) ToEntity(model *models.InstanceModel) (*instance.Instance, error) {
	if model == nil {
		return nil, nil
	}
	status, err := instance.ParseStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("corrupt status for instance %d: %w", model.ID, err)
	}
	return instance.ReconstructInstance(
		model.ID,
		model.UserID,
		model.NodeID,
		model.PanelID,
		status,
		model.ContainerDockerID,
		model.ProvisionedInstanceID,
		model.LastBilledUsage,
		model.LastBillingAt,
		model.FailureReason,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

func (m *InstanceMapper) ToModel(entity *instance.Instance) *models.InstanceModel {
	if entity == nil {
		return nil
	}
	return &models.InstanceModel{
		ID:                    entity.ID(),
		UserID:                entity.UserID(),
		NodeID:                entity.NodeID(),
		PanelID:               entity.PanelID(),
		Status:                string(entity.Status()),
		ContainerDockerID:     entity.ContainerDockerID(),
		ProvisionedInstanceID: entity.ProvisionedInstanceID(),
		LastBilledUsage:       entity.LastBilledUsage(),
		LastBillingAt:         entity.LastBillingAt(),
		FailureReason:         entity.FailureReason(),
		Version:               entity.Version(),
		CreatedAt:             entity.CreatedAt(),
		UpdatedAt:             entity.UpdatedAt(),
	}
}

func (m *InstanceMapper) ToEntities(list []*models.InstanceModel) ([]*instance.Instance, error) {
	entities := make([]*instance.Instance, 0, len(list))
	for _, item := range list {
		entity, err := m.ToEntity(item)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
