package mappers

import (
	"fmt"

	"github.com/vetiver-net/vetiver/internal/domain/panel"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
)

// PanelMapper handles the conversion between domain entities and persistence models
type PanelMapper struct{}

func NewPanelMapper() *PanelMapper {
	return &PanelMapper{}
}

func (m *PanelMapper) ToEntity(model *models.PanelModel) (*panel.Panel, error) {
	if model == nil {
		return nil, nil
	}
	ports, err := panel.NewPortAssignment(model.XrayPort, model.APIPort, model.InboundPort)
	if err != nil {
		return nil, fmt.Errorf("corrupt port assignment for panel %d: %w", model.ID, err)
	}
	return panel.ReconstructPanel(
		model.ID,
		model.UserID,
		model.URL,
		model.SealedCredentials,
		model.AccessToken,
		model.CertificateKey,
		ports,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

func (m *PanelMapper) ToModel(entity *panel.Panel) *models.PanelModel {
	if entity == nil {
		return nil
	}
	ports := entity.Ports()
	return &models.PanelModel{
		ID:                entity.ID(),
		UserID:            entity.UserID(),
		URL:               entity.URL(),
		SealedCredentials: entity.SealedCredentials(),
		AccessToken:       entity.AccessToken(),
		CertificateKey:    entity.CertificateKey(),
		XrayPort:          ports.XrayPort,
		APIPort:           ports.APIPort,
		InboundPort:       ports.InboundPort,
		CreatedAt:         entity.CreatedAt(),
		UpdatedAt:         entity.UpdatedAt(),
	}
}

func (m *PanelMapper) ToEntities(list []*models.PanelModel) ([]*panel.Panel, error) {
	entities := make([]*panel.Panel, 0, len(list))
	for _, item := range list {
		entity, err := m.ToEntity(item)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
