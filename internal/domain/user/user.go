package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/vetiver-net/vetiver/internal/shared/biztime"
)

// User is the account an instance and its charges belong to. Balance is the
// single source of truth for solvency; credit is a buffer added on top of the
// balance when deciding suspension. Users are never hard-deleted, only flagged.
type User struct {
	id              uint
	email           string
	balance         int64
	credit          int64
	priceMultiplier float64
	paymentAccess   uint8
	admin           bool
	flagged         bool

	createdAt time.Time
	updatedAt time.Time
}

func NewUser(email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	now := biztime.NowUTC()
	return &User{
		email:           email,
		priceMultiplier: 1.0,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ApplyBalanceDelta moves the balance by the given signed amount. The ledger
// is the only caller; it has already validated the transaction.
func (u *User) ApplyBalanceDelta(delta int64) {
	u.balance += delta
	u.updatedAt = biztime.NowUTC()
}

// IsSolvent reports whether (balance + credit) is above zero. The lifecycle
// manager suspends instances when this turns false.
func (u *User) IsSolvent() bool {
	return u.balance+u.credit > 0
}

// CanUsePaymentMethod checks the payment-method access mask.
func (u *User) CanUsePaymentMethod(methodBit uint8) bool {
	return u.paymentAccess&methodBit != 0
}

// GrantPaymentMethod enables a payment method for the user.
func (u *User) GrantPaymentMethod(methodBit uint8) {
	u.paymentAccess |= methodBit
	u.updatedAt = biztime.NowUTC()
}

// RevokePaymentMethod disables a payment method for the user.
func (u *User) RevokePaymentMethod(methodBit uint8) {
	u.paymentAccess &^= methodBit
	u.updatedAt = biztime.NowUTC()
}

// SetCredit sets the solvency buffer. Admin operation.
func (u *User) SetCredit(credit int64) error {
	if credit < 0 {
		return fmt.Errorf("credit cannot be negative")
	}
	u.credit = credit
	u.updatedAt = biztime.NowUTC()
	return nil
}

// SetPriceMultiplier sets the per-user price scaling. Admin operation.
func (u *User) SetPriceMultiplier(m float64) error {
	if m <= 0 {
		return fmt.Errorf("price multiplier must be positive")
	}
	u.priceMultiplier = m
	u.updatedAt = biztime.NowUTC()
	return nil
}

// Flag marks the user; flagged users keep their records but lose access.
func (u *User) Flag() {
	u.flagged = true
	u.updatedAt = biztime.NowUTC()
}

func (u *User) ID() uint                 { return u.id }
func (u *User) Email() string            { return u.email }
func (u *User) Balance() int64           { return u.balance }
func (u *User) Credit() int64            { return u.credit }
func (u *User) PriceMultiplier() float64 { return u.priceMultiplier }
func (u *User) PaymentAccess() uint8     { return u.paymentAccess }
func (u *User) IsAdmin() bool            { return u.admin }
func (u *User) IsFlagged() bool          { return u.flagged }
func (u *User) CreatedAt() time.Time     { return u.createdAt }
func (u *User) UpdatedAt() time.Time     { return u.updatedAt }

// SetID sets the user ID after persistence (used by repository after Create)
func (u *User) SetID(id uint) {
	u.id = id
}

func ReconstructUser(
	id uint,
	email string,
	balance, credit int64,
	priceMultiplier float64,
	paymentAccess uint8,
	admin, flagged bool,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:              id,
		email:           email,
		balance:         balance,
		credit:          credit,
		priceMultiplier: priceMultiplier,
		paymentAccess:   paymentAccess,
		admin:           admin,
		flagged:         flagged,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}
