package payment

import "context"

// Repository persists payment requests. Update must include an optimistic
// version check and surface a conflict on concurrent mutation; the webhook
// and admin approval race through here.
type Repository interface {
	Create(ctx context.Context, r *PaymentRequest) error
	GetByID(ctx context.Context, id uint) (*PaymentRequest, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*PaymentRequest, error)
	ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*PaymentRequest, error)
	Update(ctx context.Context, r *PaymentRequest) error
}

// BankAccountRepository manages the card-to-card destination accounts.
type BankAccountRepository interface {
	GetActive(ctx context.Context) (*BankAccount, error)
	GetByID(ctx context.Context, id uint) (*BankAccount, error)
}
