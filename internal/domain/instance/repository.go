package instance

import "context"

// Repository persists instances. Update must include an optimistic version
// check (WHERE id = ? AND version = ?) and return a conflict error when the
// row moved underneath the caller; pause/resume serialization depends on it.
type Repository interface {
	Create(ctx context.Context, inst *Instance) error
	GetByID(ctx context.Context, id uint) (*Instance, error)
	ListByUserID(ctx context.Context, userID uint) ([]*Instance, error)
	ListByUserIDAndStatus(ctx context.Context, userID uint, status Status) ([]*Instance, error)
	CountByPanelID(ctx context.Context, panelID uint) (int64, error)
	Update(ctx context.Context, inst *Instance) error
	Delete(ctx context.Context, id uint) error
}
