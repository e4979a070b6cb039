package models

import (
	"time"
)

// UserModel is the persistence shape of a user account. Users are flagged,
// never deleted; every balance, instance and payment row points here.
type UserModel struct {
	ID              uint    `gorm:"primarykey"`
	Email           string  `gorm:"uniqueIndex;not null;size:255"`
	Balance         int64   `gorm:"not null;default:0"`
	Credit          int64   `gorm:"not null;default:0"`
	PriceMultiplier float64 `gorm:"not null;default:1"`
	PaymentAccess   uint8   `gorm:"not null;default:0"`
	Admin           bool    `gorm:"not null;default:false"`
	Flagged         bool    `gorm:"not null;default:false;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return "users"
}
