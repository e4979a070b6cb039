package models

import (
	"time"

	"gorm.io/gorm"
)

// PanelModel is the persistence shape of a registered upstream panel. The
// unique indexes on the three port columns are the storage backstop behind
// the in-process port allocator; soft delete releases them back to the pool
// because the allocator only scans live rows.
type PanelModel struct {
	ID                uint   `gorm:"primarykey"`
	UserID            uint   `gorm:"not null;index"`
	URL               string `gorm:"not null;size:500"`
	SealedCredentials []byte `gorm:"not null"`
	AccessToken       string `gorm:"size:1000"`
	CertificateKey    string `gorm:"uniqueIndex;not null;size:255"`
	XrayPort          int    `gorm:"uniqueIndex;not null"`
	APIPort           int    `gorm:"uniqueIndex;not null"`
	InboundPort       int    `gorm:"uniqueIndex;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (PanelModel) TableName() string {
	return "panels"
}
