package models

import (
	"time"
)

// NodeModel is the persistence shape of a capacity node.
type NodeModel struct {
	ID              uint   `gorm:"primarykey"`
	Name            string `gorm:"uniqueIndex;not null;size:100"`
	Host            string `gorm:"not null;size:255"`
	AgentPort       int    `gorm:"not null"`
	Price           int64  `gorm:"not null"`
	Available       bool   `gorm:"not null;default:true;index"`
	Capacity        int    `gorm:"not null"`
	InstanceCount   int    `gorm:"not null;default:0"`
	AgentStatus     string `gorm:"not null;default:pending;size:20"`
	LastSeenAt      *time.Time
	EnrollmentToken string `gorm:"not null;size:100"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (NodeModel) TableName() string {
	return "nodes"
}
