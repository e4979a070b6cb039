package mappers

import (
	"github.com/vetiver-net/vetiver/internal/domain/node"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
)

// NodeMapper handles the conversion between domain entities and persistence models
type NodeMapper struct{}

func NewNodeMapper() *NodeMapper {
	return &NodeMapper{}
}

func (m *NodeMapper) ToEntity(model *models.NodeModel) *node.Node {
	if model == nil {
		return nil
	}
	return node.ReconstructNode(
		model.ID,
		model.Name,
		model.Host,
		model.AgentPort,
		model.Price,
		model.Available,
		model.Capacity,
		model.InstanceCount,
		node.AgentStatus(model.AgentStatus),
		model.LastSeenAt,
		model.EnrollmentToken,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *NodeMapper) ToModel(entity *node.Node) *models.NodeModel {
	if entity == nil {
		return nil
	}
	return &models.NodeModel{
		ID:              entity.ID(),
		Name:            entity.Name(),
		Host:            entity.Host(),
		AgentPort:       entity.AgentPort(),
		Price:           entity.Price(),
		Available:       entity.IsAvailable(),
		Capacity:        entity.Capacity(),
		InstanceCount:   entity.InstanceCount(),
		AgentStatus:     string(entity.AgentStatus()),
		LastSeenAt:      entity.LastSeenAt(),
		EnrollmentToken: entity.EnrollmentToken(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}
}

func (m *NodeMapper) ToEntities(list []*models.NodeModel) []*node.Node {
	entities := make([]*node.Node, 0, len(list))
	for _, item := range list {
		entities = append(entities, m.ToEntity(item))
	}
	return entities
}
