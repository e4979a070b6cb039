package node

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/vetiver-net/vetiver/internal/shared/biztime"
)

// AgentStatus is the health state reported by the provisioning health loop.
type AgentStatus string

const (
	AgentStatusPending AgentStatus = "pending"
	AgentStatusOnline  AgentStatus = "online"
	AgentStatusOffline AgentStatus = "offline"
)

// Node is a host offering proxy capacity through its local agent. Price is
// the cost per GiB in the smallest monetary unit.
type Node struct {
	id        uint
	name      string
	host      string
	agentPort int

	price         int64
	available     bool
	capacity      int
	instanceCount int

	agentStatus     AgentStatus
	lastSeenAt      *time.Time
	enrollmentToken string

	createdAt time.Time
	updatedAt time.Time
}

func NewNode(name, host string, agentPort int, price int64, capacity int) (*Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("node name is required")
	}
	if host == "" {
		return nil, fmt.Errorf("node host is required")
	}
	if agentPort <= 0 || agentPort > 65535 {
		return nil, fmt.Errorf("invalid agent port: %d", agentPort)
	}
	if price <= 0 {
		return nil, fmt.Errorf("price per GiB must be positive")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive")
	}

	token, err := generateEnrollmentToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate enrollment token: %w", err)
	}

	now := biztime.NowUTC()
	return &Node{
		name:            name,
		host:            host,
		agentPort:       agentPort,
		price:           price,
		available:       true,
		capacity:        capacity,
		agentStatus:     AgentStatusPending,
		enrollmentToken: token,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

func generateEnrollmentToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "node_" + hex.EncodeToString(buf), nil
}

// HasCapacity reports whether another instance fits on the node.
func (n *Node) HasCapacity() bool {
	return n.available && n.instanceCount < n.capacity
}

// IncrementInstances records a provisioned instance and derives availability
// from the remaining capacity.
func (n *Node) IncrementInstances() {
	n.instanceCount++
	if n.instanceCount >= n.capacity {
		n.available = false
	}
	n.updatedAt = biztime.NowUTC()
}

// DecrementInstances records a removed instance.
func (n *Node) DecrementInstances() {
	if n.instanceCount > 0 {
		n.instanceCount--
	}
	if n.agentStatus == AgentStatusOnline && n.instanceCount < n.capacity {
		n.available = true
	}
	n.updatedAt = biztime.NowUTC()
}

// MarkAgentOnline is called by the health-check loop on a successful ping.
func (n *Node) MarkAgentOnline() {
	now := biztime.NowUTC()
	n.agentStatus = AgentStatusOnline
	n.lastSeenAt = &now
	if n.instanceCount < n.capacity {
		n.available = true
	}
	n.updatedAt = now
}

// MarkAgentOffline is called by the health-check loop on a failed ping. An
// offline node accepts no new instances.
func (n *Node) MarkAgentOffline() {
	n.agentStatus = AgentStatusOffline
	n.available = false
	n.updatedAt = biztime.NowUTC()
}

// SetPrice updates the cost per GiB. Admin operation; already-billed usage is
// not recomputed.
func (n *Node) SetPrice(price int64) error {
	if price <= 0 {
		return fmt.Errorf("price per GiB must be positive")
	}
	n.price = price
	n.updatedAt = biztime.NowUTC()
	return nil
}

// AgentAddr returns the base URL of the node agent API.
func (n *Node) AgentAddr() string {
	return fmt.Sprintf("http://%s:%d", n.host, n.agentPort)
}

func (n *Node) ID() uint                 { return n.id }
func (n *Node) Name() string             { return n.name }
func (n *Node) Host() string             { return n.host }
func (n *Node) AgentPort() int           { return n.agentPort }
func (n *Node) Price() int64             { return n.price }
func (n *Node) IsAvailable() bool        { return n.available }
func (n *Node) Capacity() int            { return n.capacity }
func (n *Node) InstanceCount() int       { return n.instanceCount }
func (n *Node) AgentStatus() AgentStatus { return n.agentStatus }
func (n *Node) LastSeenAt() *time.Time   { return n.lastSeenAt }
func (n *Node) EnrollmentToken() string  { return n.enrollmentToken }
func (n *Node) CreatedAt() time.Time     { return n.createdAt }
func (n *Node) UpdatedAt() time.Time     { return n.updatedAt }

// SetID sets the node ID after persistence (used by repository after Create)
func (n *Node) SetID(id uint) {
	n.id = id
}

func ReconstructNode(
	id uint,
	name, host string,
	agentPort int,
	price int64,
	available bool,
	capacity, instanceCount int,
	agentStatus AgentStatus,
	lastSeenAt *time.Time,
	enrollmentToken string,
	createdAt, updatedAt time.Time,
) *Node {
	return &Node{
		id:              id,
		name:            name,
		host:            host,
		agentPort:       agentPort,
		price:           price,
		available:       available,
		capacity:        capacity,
		instanceCount:   instanceCount,
		agentStatus:     agentStatus,
		lastSeenAt:      lastSeenAt,
		enrollmentToken: enrollmentToken,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}
