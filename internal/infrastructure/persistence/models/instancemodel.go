package models

import (
	"time"

	"gorm.io/gorm"
)

// InstanceModel is the persistence shape of a provisioned instance. Version
// backs the optimistic lock: updates run WHERE id = ? AND version = ?.
type InstanceModel struct {
	ID                    uint   `gorm:"primarykey"`
	UserID                uint   `gorm:"not null;index"`
	NodeID                uint   `gorm:"not null;index"`
	PanelID               uint   `gorm:"not null;index"`
	Status                string `gorm:"not null;size:30;index"`
	ContainerDockerID     *string `gorm:"size:100"`
	ProvisionedInstanceID *string `gorm:"size:100"`
	LastBilledUsage       uint64  `gorm:"not null;default:0"`
	LastBillingAt         *time.Time
	FailureReason         *string `gorm:"size:1000"`
	Version               int     `gorm:"not null;default:0"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// TableName specifies the table name for GORM
func (InstanceModel) TableName() string {
	return "instances"
}

// BeforeCreate hook for GORM
func (m *InstanceModel) BeforeCreate(tx *gorm.DB) error {
	if m.Status == "" {
		m.Status = "provisioning"
	}
	return nil
}
