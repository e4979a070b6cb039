package instance

import "fmt"

// Status is the instance lifecycle state. States form a closed set with an
// explicit transition table; there is no subclassing.
type Status string

const (
	StatusProvisioning   Status = "provisioning"
	StatusRunning        Status = "running"
	StatusPausedByUser   Status = "paused_by_user"
	StatusPausedBySystem Status = "paused_by_system"
	StatusFailed         Status = "failed"
)

// validTransitions is the transition table. Deletion is not listed: any
// non-terminal record may be deleted, which removes the row entirely.
var validTransitions = map[Status][]Status{
	StatusProvisioning:   {StatusRunning, StatusFailed},
	StatusRunning:        {StatusPausedByUser, StatusPausedBySystem, StatusFailed},
	StatusPausedByUser:   {StatusRunning, StatusFailed},
	StatusPausedBySystem: {StatusRunning, StatusFailed},
	StatusFailed:         {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsPaused reports whether the status is one of the paused variants.
func (s Status) IsPaused() bool {
	return s == StatusPausedByUser || s == StatusPausedBySystem
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus validates and converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusProvisioning, StatusRunning, StatusPausedByUser, StatusPausedBySystem, StatusFailed:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("unknown instance status: %s", raw)
	}
}
