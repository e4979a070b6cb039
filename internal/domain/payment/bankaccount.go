package payment

import (
	"fmt"
	"time"

	"github.com/vetiver-net/vetiver/internal/shared/biztime"
)

// BankAccount is an admin-managed destination card for card-to-card top-ups.
type BankAccount struct {
	id         uint
	cardNumber string
	holderName string
	bankName   string
	active     bool

	createdAt time.Time
	updatedAt time.Time
}

func NewBankAccount(cardNumber, holderName, bankName string) (*BankAccount, error) {
	if cardNumber == "" {
		return nil, fmt.Errorf("card number is required")
	}
	if holderName == "" {
		return nil, fmt.Errorf("holder name is required")
	}

	now := biztime.NowUTC()
	return &BankAccount{
		cardNumber: cardNumber,
		holderName: holderName,
		bankName:   bankName,
		active:     true,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func (b *BankAccount) ID() uint            { return b.id }
func (b *BankAccount) CardNumber() string  { return b.cardNumber }
func (b *BankAccount) HolderName() string  { return b.holderName }
func (b *BankAccount) BankName() string    { return b.bankName }
func (b *BankAccount) IsActive() bool      { return b.active }
func (b *BankAccount) CreatedAt() time.Time { return b.createdAt }

// SetID sets the account ID after persistence (used by repository after Create)
func (b *BankAccount) SetID(id uint) {
	b.id = id
}

func ReconstructBankAccount(
	id uint,
	cardNumber, holderName, bankName string,
	active bool,
	createdAt, updatedAt time.Time,
) *BankAccount {
	return &BankAccount{
		id:         id,
		cardNumber: cardNumber,
		holderName: holderName,
		bankName:   bankName,
		active:     active,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}
