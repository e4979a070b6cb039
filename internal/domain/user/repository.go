package user

import "context"

// Repository is the user store boundary. UpdateBalance applies the signed
// delta computed by the ledger; it must run inside the ledger's transaction.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, u *User) error
	UpdateBalance(ctx context.Context, id uint, delta int64) error
}
