// Package node holds the admin node-management use cases.
package node

import (
	"context"
	"time"

	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// CreateNodeCommand registers a new capacity node.
type CreateNodeCommand struct {
	Name      string
	Host      string
	AgentPort int
	Price     int64
	Capacity  int
}

// CreateNodeResult returns the id and the enrollment token the agent must
// present on its API.
type CreateNodeResult struct {
	NodeID          uint   `json:"node_id"`
	EnrollmentToken string `json:"enrollment_token"`
}

// CreateNodeUseCase registers a node. The agent starts as pending and becomes
// available once the health loop sees it online.
type CreateNodeUseCase struct {
	nodes  nodeDomain.Repository
	logger logger.Interface
}

func NewCreateNodeUseCase(nodes nodeDomain.Repository, logger logger.Interface) *CreateNodeUseCase {
	return &CreateNodeUseCase{nodes: nodes, logger: logger}
}

func (uc *CreateNodeUseCase) Execute(ctx context.Context, cmd CreateNodeCommand) (*CreateNodeResult, error) {
	n, err := nodeDomain.NewNode(cmd.Name, cmd.Host, cmd.AgentPort, cmd.Price, cmd.Capacity)
	if err != nil {
		return nil, errors.NewValidationError("invalid node", err.Error())
	}

	if err := uc.nodes.Create(ctx, n); err != nil {
		if errors.IsDuplicateError(err) {
			return nil, errors.NewConflictError("node name already exists")
		}
		return nil, err
	}

	uc.logger.Infow("node created",
		"node_id", n.ID(), "name", n.Name(), "host", n.Host(), "price", n.Price())

	return &CreateNodeResult{
		NodeID:          n.ID(),
		EnrollmentToken: n.EnrollmentToken(),
	}, nil
}

// NodeDTO is the read-model shape for node listings.
type NodeDTO struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Host          string     `json:"host"`
	Price         int64      `json:"price"`
	Available     bool       `json:"available"`
	Capacity      int        `json:"capacity"`
	InstanceCount int        `json:"instance_count"`
	AgentStatus   string     `json:"agent_status"`
	LastSeenAt    *time.Time `json:"last_seen_at,omitempty"`
}

// ListNodesUseCase lists nodes accepting new instances.
type ListNodesUseCase struct {
	nodes nodeDomain.Repository
}

func NewListNodesUseCase(nodes nodeDomain.Repository) *ListNodesUseCase {
	return &ListNodesUseCase{nodes: nodes}
}

func (uc *ListNodesUseCase) Execute(ctx context.Context) ([]*NodeDTO, error) {
	list, err := uc.nodes.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]*NodeDTO, 0, len(list))
	for _, n := range list {
		dtos = append(dtos, &NodeDTO{
			ID:            n.ID(),
			Name:          n.Name(),
			Host:          n.Host(),
			Price:         n.Price(),
			Available:     n.IsAvailable(),
			Capacity:      n.Capacity(),
			InstanceCount: n.InstanceCount(),
			AgentStatus:   string(n.AgentStatus()),
			LastSeenAt:    n.LastSeenAt(),
		})
	}
	return dtos, nil
}
