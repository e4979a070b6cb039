package ledger

import "context"

// Repository appends and reads ledger entries. Entries are never updated or
// deleted; the history is the audit trail for every balance.
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uint) (*Transaction, error)
	ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*Transaction, error)
}
