package node

import "context"

// Repository persists nodes. Names are unique; Create must surface a
// conflict error on duplicates.
type Repository interface {
	Create(ctx context.Context, n *Node) error
	GetByID(ctx context.Context, id uint) (*Node, error)
	GetByName(ctx context.Context, name string) (*Node, error)
	ListActive(ctx context.Context) ([]*Node, error)
	Update(ctx context.Context, n *Node) error
}
