package instance

import (
	"fmt"
	"time"

	"github.com/vetiver-net/vetiver/internal/shared/biztime"
)

// Instance is one billable provisioned service unit: a (user, node, panel)
// triple plus the opaque handles assigned by the remote node agent.
//
// Transitions that depend on an external call must only be committed after
// the call succeeds; the use cases enforce that ordering, the aggregate
// enforces legality via the transition table.
type Instance struct {
	id      uint
	userID  uint
	nodeID  uint
	panelID uint
	status  Status

	containerDockerID     *string
	provisionedInstanceID *string

	lastBilledUsage uint64
	lastBillingAt   *time.Time

	failureReason *string

	version int
	// loadedVersion is the version the row carried when the aggregate was
	// loaded or last persisted; the repository's optimistic check compares
	// against it, so any number of mutations between saves is fine.
	loadedVersion int
	createdAt     time.Time
	updatedAt     time.Time
}

// NewInstance creates an instance in the provisioning state. The record is
// persisted before the external provision call so a crash leaves a queryable
// trace.
func NewInstance(userID, nodeID, panelID uint) (*Instance, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if nodeID == 0 {
		return nil, fmt.Errorf("node ID is required")
	}
	if panelID == 0 {
		return nil, fmt.Errorf("panel ID is required")
	}

	now := biztime.NowUTC()
	return &Instance{
		userID:    userID,
		nodeID:    nodeID,
		panelID:   panelID,
		status:    StatusProvisioning,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func (i *Instance) transition(to Status) error {
	if !CanTransition(i.status, to) {
		return fmt.Errorf("invalid transition from %s to %s", i.status, to)
	}
	i.status = to
	i.updatedAt = biztime.NowUTC()
	i.version++
	return nil
}

// Finalize moves provisioning → running with the externally assigned handles.
func (i *Instance) Finalize(containerDockerID, provisionedInstanceID string) error {
	if containerDockerID == "" {
		return fmt.Errorf("container handle is required")
	}
	if err := i.transition(StatusRunning); err != nil {
		return err
	}
	i.containerDockerID = &containerDockerID
	i.provisionedInstanceID = &provisionedInstanceID
	return nil
}

// MarkFailed records a terminal provisioning or lifecycle failure. The record
// stays queryable for diagnostics.
func (i *Instance) MarkFailed(reason string) error {
	if err := i.transition(StatusFailed); err != nil {
		return err
	}
	i.failureReason = &reason
	return nil
}

// PauseByUser flips running → paused_by_user. Callers must have already
// paused the container on the node agent.
func (i *Instance) PauseByUser() error {
	if i.status != StatusRunning {
		return fmt.Errorf("cannot pause instance with status %s", i.status)
	}
	return i.transition(StatusPausedByUser)
}

// PauseBySystem flips running → paused_by_system on a failed solvency check.
func (i *Instance) PauseBySystem() error {
	if i.status != StatusRunning {
		return fmt.Errorf("cannot suspend instance with status %s", i.status)
	}
	return i.transition(StatusPausedBySystem)
}

// ResumeByUser flips paused_by_user → running. A system-paused instance can
// only be resumed by a restored solvency check, not by the user.
func (i *Instance) ResumeByUser() error {
	if i.status != StatusPausedByUser {
		return fmt.Errorf("cannot resume instance with status %s", i.status)
	}
	return i.transition(StatusRunning)
}

// ResumeBySystem flips paused_by_system → running once solvency is restored.
func (i *Instance) ResumeBySystem() error {
	if i.status != StatusPausedBySystem {
		return fmt.Errorf("cannot resume instance with status %s", i.status)
	}
	return i.transition(StatusRunning)
}

// AdvanceBilledUsage moves the billing watermark forward after a successful
// ledger post. It never moves backwards.
func (i *Instance) AdvanceBilledUsage(totalUsage uint64) error {
	if totalUsage < i.lastBilledUsage {
		return fmt.Errorf("billed usage cannot move backwards: %d < %d", totalUsage, i.lastBilledUsage)
	}
	now := biztime.NowUTC()
	i.lastBilledUsage = totalUsage
	i.lastBillingAt = &now
	i.updatedAt = now
	i.version++
	return nil
}

func (i *Instance) ID() uint                       { return i.id }
func (i *Instance) UserID() uint                   { return i.userID }
func (i *Instance) NodeID() uint                   { return i.nodeID }
func (i *Instance) PanelID() uint                  { return i.panelID }
func (i *Instance) Status() Status                 { return i.status }
func (i *Instance) ContainerDockerID() *string     { return i.containerDockerID }
func (i *Instance) ProvisionedInstanceID() *string { return i.provisionedInstanceID }
func (i *Instance) LastBilledUsage() uint64        { return i.lastBilledUsage }
func (i *Instance) LastBillingAt() *time.Time      { return i.lastBillingAt }
func (i *Instance) FailureReason() *string         { return i.failureReason }
func (i *Instance) Version() int                   { return i.version }
func (i *Instance) LoadedVersion() int             { return i.loadedVersion }
func (i *Instance) CreatedAt() time.Time           { return i.createdAt }
func (i *Instance) UpdatedAt() time.Time           { return i.updatedAt }

// SetID sets the instance ID after persistence (used by repository after Create)
func (i *Instance) SetID(id uint) {
	i.id = id
}

// SyncVersion marks the current version as persisted (used by repository
// after Create/Update).
func (i *Instance) SyncVersion() {
	i.loadedVersion = i.version
}

func ReconstructInstance(
	id uint,
	userID, nodeID, panelID uint,
	status Status,
	containerDockerID, provisionedInstanceID *string,
	lastBilledUsage uint64,
	lastBillingAt *time.Time,
	failureReason *string,
	version int,
	createdAt, updatedAt time.Time,
) *Instance {
	return &Instance{
		id:                    id,
		userID:                userID,
		nodeID:                nodeID,
		panelID:               panelID,
		status:                status,
		containerDockerID:     containerDockerID,
		provisionedInstanceID: provisionedInstanceID,
		lastBilledUsage:       lastBilledUsage,
		lastBillingAt:         lastBillingAt,
		failureReason:         failureReason,
		version:               version,
		loadedVersion:         version,
		createdAt:             createdAt,
		updatedAt:             updatedAt,
	}
}
