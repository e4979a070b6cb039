package instance

import (
	"context"
	"time"

	instanceDomain "github.com/vetiver-net/vetiver/internal/domain/instance"
)

// InstanceDTO is the read-model shape handed to the HTTP layer. Failed
// instances stay queryable with their failure reason for diagnostics.
type InstanceDTO struct {
	ID                    uint       `json:"id"`
	NodeID                uint       `json:"node_id"`
	PanelID               uint       `json:"panel_id"`
	Status                string     `json:"status"`
	ContainerDockerID     *string    `json:"container_docker_id,omitempty"`
	ProvisionedInstanceID *string    `json:"provisioned_instance_id,omitempty"`
	LastBilledUsage       uint64     `json:"last_billed_usage"`
	LastBillingAt         *time.Time `json:"last_billing_at,omitempty"`
	FailureReason         *string    `json:"failure_reason,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// GetInstanceUseCase reads one instance or a user's full list.
type GetInstanceUseCase struct {
	instances instanceDomain.Repository
}

func NewGetInstanceUseCase(instances instanceDomain.Repository) *GetInstanceUseCase {
	return &GetInstanceUseCase{instances: instances}
}

func (uc *GetInstanceUseCase) Execute(ctx context.Context, instanceID, userID uint) (*InstanceDTO, error) {
	inst, err := loadOwnedInstance(ctx, uc.instances, instanceID, userID)
	if err != nil {
		return nil, err
	}
	return toDTO(inst), nil
}

func (uc *GetInstanceUseCase) List(ctx context.Context, userID uint) ([]*InstanceDTO, error) {
	list, err := uc.instances.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dtos := make([]*InstanceDTO, 0, len(list))
	for _, inst := range list {
		dtos = append(dtos, toDTO(inst))
	}
	return dtos, nil
}

func toDTO(inst *instanceDomain.Instance) *InstanceDTO {
	return &InstanceDTO{
		ID:                    inst.ID(),
		NodeID:                inst.NodeID(),
		PanelID:               inst.PanelID(),
		Status:                string(inst.Status()),
		ContainerDockerID:     inst.ContainerDockerID(),
		ProvisionedInstanceID: inst.ProvisionedInstanceID(),
		LastBilledUsage:       inst.LastBilledUsage(),
		LastBillingAt:         inst.LastBillingAt(),
		FailureReason:         inst.FailureReason(),
		CreatedAt:             inst.CreatedAt(),
	}
}
