package instance

import (
	"fmt"

	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	"github.com/vetiver-net/vetiver/internal/shared/biztime"
)

const (
	EventTypeProvisioned = "instance.provisioned"
	EventTypeFailed      = "instance.provision_failed"
	EventTypeSuspended   = "instance.suspended"
	EventTypeResumed     = "instance.resumed"
	EventTypeDeleted     = "instance.deleted"
)

// ProvisionedEvent fires when an instance finalizes to running.
type ProvisionedEvent struct {
	events.BaseEvent
	InstanceID uint   `json:"instance_id"`
	UserID     uint   `json:"user_id"`
	NodeID     uint   `json:"node_id"`
	Container  string `json:"container"`
}

func NewProvisionedEvent(inst *Instance) *ProvisionedEvent {
	container := ""
	if inst.ContainerDockerID() != nil {
		container = *inst.ContainerDockerID()
	}
	return &ProvisionedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: fmt.Sprintf("%d", inst.ID()),
			EventType:   EventTypeProvisioned,
			OccurredAt:  biztime.NowUTC(),
		},
		InstanceID: inst.ID(),
		UserID:     inst.UserID(),
		NodeID:     inst.NodeID(),
		Container:  container,
	}
}

// FailedEvent fires when provisioning fails terminally.
type FailedEvent struct {
	events.BaseEvent
	InstanceID uint   `json:"instance_id"`
	UserID     uint   `json:"user_id"`
	Reason     string `json:"reason"`
}

func NewFailedEvent(inst *Instance, reason string) *FailedEvent {
	return &FailedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: fmt.Sprintf("%d", inst.ID()),
			EventType:   EventTypeFailed,
			OccurredAt:  biztime.NowUTC(),
		},
		InstanceID: inst.ID(),
		UserID:     inst.UserID(),
		Reason:     reason,
	}
}

// SuspendedEvent fires when the solvency loop pauses an instance.
type SuspendedEvent struct {
	events.BaseEvent
	InstanceID uint `json:"instance_id"`
	UserID     uint `json:"user_id"`
}

func NewSuspendedEvent(inst *Instance) *SuspendedEvent {
	return &SuspendedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: fmt.Sprintf("%d", inst.ID()),
			EventType:   EventTypeSuspended,
			OccurredAt:  biztime.NowUTC(),
		},
		InstanceID: inst.ID(),
		UserID:     inst.UserID(),
	}
}

// ResumedEvent fires when the solvency loop resumes an instance.
type ResumedEvent struct {
	events.BaseEvent
	InstanceID uint `json:"instance_id"`
	UserID     uint `json:"user_id"`
}

func NewResumedEvent(inst *Instance) *ResumedEvent {
	return &ResumedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: fmt.Sprintf("%d", inst.ID()),
			EventType:   EventTypeResumed,
			OccurredAt:  biztime.NowUTC(),
		},
		InstanceID: inst.ID(),
		UserID:     inst.UserID(),
	}
}

// DeletedEvent fires after the local record is removed, regardless of how
// much of the remote cleanup succeeded.
type DeletedEvent struct {
	events.BaseEvent
	InstanceID      uint     `json:"instance_id"`
	UserID          uint     `json:"user_id"`
	CleanupFailures []string `json:"cleanup_failures,omitempty"`
}

func NewDeletedEvent(inst *Instance, cleanupFailures []string) *DeletedEvent {
	return &DeletedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: fmt.Sprintf("%d", inst.ID()),
			EventType:   EventTypeDeleted,
			OccurredAt:  biztime.NowUTC(),
		},
		InstanceID:      inst.ID(),
		UserID:          inst.UserID(),
		CleanupFailures: cleanupFailures,
	}
}
