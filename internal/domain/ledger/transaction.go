package ledger

import (
	"fmt"
	"time"

	"github.com/vetiver-net/vetiver/internal/shared/biztime"
)

// Type is the direction of a ledger entry.
type Type string

const (
	TypeCredit Type = "credit"
	TypeDebit  Type = "debit"
)

// ParseType validates and converts a raw string into a Type.
func ParseType(raw string) (Type, error) {
	switch Type(raw) {
	case TypeCredit, TypeDebit:
		return Type(raw), nil
	default:
		return "", fmt.Errorf("unknown transaction type: %s", raw)
	}
}

// Reason classifies why the balance changed.
type Reason string

const (
	ReasonTopUp        Reason = "top_up"
	ReasonServiceUsage Reason = "service_usage"
	ReasonRefund       Reason = "refund"
	ReasonManualCredit Reason = "manual_credit"
	ReasonManualDebit  Reason = "manual_debit"
)

// ParseReason validates and converts a raw string into a Reason.
func ParseReason(raw string) (Reason, error) {
	switch Reason(raw) {
	case ReasonTopUp, ReasonServiceUsage, ReasonRefund, ReasonManualCredit, ReasonManualDebit:
		return Reason(raw), nil
	default:
		return "", fmt.Errorf("unknown transaction reason: %s", raw)
	}
}

// Transaction is an immutable ledger entry. balanceAfter must equal
// balanceBefore plus the signed amount, and must equal the user's stored
// balance immediately after the entry is applied. The constructor enforces
// the arithmetic; the ledger service enforces the storage consistency by
// running append and apply in one transaction.
type Transaction struct {
	id            uint
	userID        uint
	amount        int64
	txType        Type
	reason        Reason
	balanceBefore int64
	balanceAfter  int64
	description   string
	createdAt     time.Time
}

func NewTransaction(userID uint, amount int64, txType Type, reason Reason, balanceBefore int64, description string) (*Transaction, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	balanceAfter := balanceBefore
	switch txType {
	case TypeCredit:
		balanceAfter += amount
	case TypeDebit:
		balanceAfter -= amount
	default:
		return nil, fmt.Errorf("unknown transaction type: %s", txType)
	}

	return &Transaction{
		userID:        userID,
		amount:        amount,
		txType:        txType,
		reason:        reason,
		balanceBefore: balanceBefore,
		balanceAfter:  balanceAfter,
		description:   description,
		createdAt:     biztime.NowUTC(),
	}, nil
}

// SignedAmount returns the amount with its direction applied.
func (t *Transaction) SignedAmount() int64 {
	if t.txType == TypeDebit {
		return -t.amount
	}
	return t.amount
}

func (t *Transaction) ID() uint             { return t.id }
func (t *Transaction) UserID() uint         { return t.userID }
func (t *Transaction) Amount() int64        { return t.amount }
func (t *Transaction) Type() Type           { return t.txType }
func (t *Transaction) Reason() Reason       { return t.reason }
func (t *Transaction) BalanceBefore() int64 { return t.balanceBefore }
func (t *Transaction) BalanceAfter() int64  { return t.balanceAfter }
func (t *Transaction) Description() string  { return t.description }
func (t *Transaction) CreatedAt() time.Time { return t.createdAt }

// SetID sets the transaction ID after persistence (used by repository after Create)
func (t *Transaction) SetID(id uint) {
	t.id = id
}

func ReconstructTransaction(
	id uint,
	userID uint,
	amount int64,
	txType Type,
	reason Reason,
	balanceBefore, balanceAfter int64,
	description string,
	createdAt time.Time,
) *Transaction {
	return &Transaction{
		id:            id,
		userID:        userID,
		amount:        amount,
		txType:        txType,
		reason:        reason,
		balanceBefore: balanceBefore,
		balanceAfter:  balanceAfter,
		description:   description,
		createdAt:     createdAt,
	}
}
