// Package remote declares the narrow contracts of the external collaborators:
// the node-agent API and the upstream panel control-plane. Implementations
// live in infrastructure; use cases depend only on these interfaces.
package remote

import "context"

// NodeRef addresses one node agent.
type NodeRef struct {
	Addr  string
	Token string
}

// ProvisionSpec describes the container to provision for an instance.
type ProvisionSpec struct {
	InstanceID  uint
	UserID      uint
	PanelURL    string
	XrayPort    int
	APIPort     int
	InboundPort int
}

// ProvisionResult carries the externally assigned handles.
type ProvisionResult struct {
	ContainerID           string
	ProvisionedInstanceID string
}

// UsageSample is one cumulative byte-count measurement for an instance.
type UsageSample struct {
	InstanceID      uint   `json:"instance_id"`
	TotalUsageBytes uint64 `json:"total_usage_bytes"`
}

// NodeAgentClient is the contract of the node-agent control API. All calls
// are fallible I/O with bounded timeouts; implementations must classify
// timeout/5xx as retryable and 4xx as terminal (see shared/errors).
type NodeAgentClient interface {
	ProvisionContainer(ctx context.Context, ref NodeRef, spec ProvisionSpec) (*ProvisionResult, error)
	PauseContainer(ctx context.Context, ref NodeRef, containerID string) error
	ResumeContainer(ctx context.Context, ref NodeRef, containerID string) error
	DeprovisionInstance(ctx context.Context, ref NodeRef, provisionedInstanceID string) error
	GetUsage(ctx context.Context, ref NodeRef) ([]UsageSample, error)
	Ping(ctx context.Context, ref NodeRef) error
}
