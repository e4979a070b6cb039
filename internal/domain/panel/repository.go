package panel

import "context"

// Repository persists panels. Panels are soft-deleted; a soft-deleted panel
// frees its ports for reallocation, so ListAllocatedPorts only scans live
// rows. GetByCertificateKey backs the duplicate-registration guard.
type Repository interface {
	Create(ctx context.Context, p *Panel) error
	GetByID(ctx context.Context, id uint) (*Panel, error)
	GetByCertificateKey(ctx context.Context, certificateKey string) (*Panel, error)
	ListByUserID(ctx context.Context, userID uint) ([]*Panel, error)
	ListAllocatedPorts(ctx context.Context) ([]int, error)
	Update(ctx context.Context, p *Panel) error
	SoftDelete(ctx context.Context, id uint) error
}
