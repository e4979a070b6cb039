package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentRequestModel is the persistence shape of a top-up attempt. TrackingID
// is the uuid handed to the gateway; the webhook looks rows up by it.
type PaymentRequestModel struct {
	ID                   uint   `gorm:"primarykey"`
	UserID               uint   `gorm:"not null;index"`
	Amount               int64  `gorm:"not null"`
	Method               string `gorm:"not null;size:20"`
	Status               string `gorm:"not null;size:20;index"`
	TrackingID           string `gorm:"uniqueIndex;not null;size:36"`
	BankAccountID        *uint
	GatewayTransactionID *string `gorm:"size:100"`
	ReceiptPath          *string `gorm:"size:500"`
	ThumbnailPath        *string `gorm:"size:500"`
	RejectDescription    *string `gorm:"size:500"`
	Metadata             datatypes.JSON
	Version              int `gorm:"not null;default:0"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName specifies the table name for GORM
func (PaymentRequestModel) TableName() string {
	return "payment_requests"
}
