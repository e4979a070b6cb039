package models

import (
	"time"
)

// TransactionModel is the persistence shape of a ledger entry. Rows are
// append-only; there is no UpdatedAt because nothing ever updates them.
type TransactionModel struct {
	ID            uint   `gorm:"primarykey"`
	UserID        uint   `gorm:"not null;index"`
	Amount        int64  `gorm:"not null"`
	Type          string `gorm:"not null;size:10"`
	Reason        string `gorm:"not null;size:30;index"`
	BalanceBefore int64  `gorm:"not null"`
	BalanceAfter  int64  `gorm:"not null"`
	Description   string `gorm:"size:500"`
	CreatedAt     time.Time `gorm:"index"`
}

// TableName specifies the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}
