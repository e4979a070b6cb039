package models

import (
	"time"
)

// BankAccountModel is the persistence shape of a card-to-card destination.
type BankAccountModel struct {
	ID         uint   `gorm:"primarykey"`
	CardNumber string `gorm:"not null;size:30"`
	HolderName string `gorm:"not null;size:100"`
	BankName   string `gorm:"size:100"`
	Active     bool   `gorm:"not null;default:true;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}
