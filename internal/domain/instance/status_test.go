package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"provisioning to running", StatusProvisioning, StatusRunning, true},
		{"provisioning to failed", StatusProvisioning, StatusFailed, true},
		{"provisioning to paused_by_user", StatusProvisioning, StatusPausedByUser, false},
		{"running to paused_by_user", StatusRunning, StatusPausedByUser, true},
		{"running to paused_by_system", StatusRunning, StatusPausedBySystem, true},
		{"running to failed", StatusRunning, StatusFailed, true},
		{"running to provisioning", StatusRunning, StatusProvisioning, false},
		{"paused_by_user to running", StatusPausedByUser, StatusRunning, true},
		{"paused_by_user to paused_by_system", StatusPausedByUser, StatusPausedBySystem, false},
		{"paused_by_system to running", StatusPausedBySystem, StatusRunning, true},
		{"paused_by_system to paused_by_user", StatusPausedBySystem, StatusPausedByUser, false},
		{"failed is terminal", StatusFailed, StatusRunning, false},
		{"failed to failed", StatusFailed, StatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusPausedByUser.IsPaused())
	assert.True(t, StatusPausedBySystem.IsPaused())
	assert.False(t, StatusRunning.IsPaused())

	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusPausedBySystem.IsTerminal())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("paused_by_system")
	require.NoError(t, err)
	assert.Equal(t, StatusPausedBySystem, s)

	_, err = ParseStatus("hibernating")
	assert.Error(t, err)
}

func TestInstanceLifecycle(t *testing.T) {
	inst, err := NewInstance(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, StatusProvisioning, inst.Status())
	assert.Equal(t, 0, inst.Version())

	require.NoError(t, inst.Finalize("docker-abc", "prov-42"))
	assert.Equal(t, StatusRunning, inst.Status())
	require.NotNil(t, inst.ContainerDockerID())
	assert.Equal(t, "docker-abc", *inst.ContainerDockerID())
	assert.Equal(t, 1, inst.Version())

	require.NoError(t, inst.PauseByUser())
	assert.Equal(t, StatusPausedByUser, inst.Status())

	// A user cannot resume through the system path and vice versa.
	assert.Error(t, inst.ResumeBySystem())
	require.NoError(t, inst.ResumeByUser())

	require.NoError(t, inst.PauseBySystem())
	assert.Equal(t, StatusPausedBySystem, inst.Status())
	assert.Error(t, inst.ResumeByUser())
	require.NoError(t, inst.ResumeBySystem())

	require.NoError(t, inst.MarkFailed("agent gone"))
	assert.Equal(t, StatusFailed, inst.Status())
	require.NotNil(t, inst.FailureReason())
	assert.Error(t, inst.PauseByUser())
}

func TestFinalizeRequiresContainerHandle(t *testing.T) {
	inst, err := NewInstance(1, 2, 3)
	require.NoError(t, err)
	assert.Error(t, inst.Finalize("", "prov-42"))
	assert.Equal(t, StatusProvisioning, inst.Status())
}

func TestPauseRequiresRunning(t *testing.T) {
	inst, err := NewInstance(1, 2, 3)
	require.NoError(t, err)
	assert.Error(t, inst.PauseByUser())
	assert.Error(t, inst.PauseBySystem())
}

func TestAdvanceBilledUsage(t *testing.T) {
	inst, err := NewInstance(1, 2, 3)
	require.NoError(t, err)
	require.NoError(t, inst.Finalize("docker-abc", "prov-42"))

	require.NoError(t, inst.AdvanceBilledUsage(1000))
	assert.Equal(t, uint64(1000), inst.LastBilledUsage())
	require.NotNil(t, inst.LastBillingAt())

	// Watermark never moves backwards.
	assert.Error(t, inst.AdvanceBilledUsage(999))
	assert.Equal(t, uint64(1000), inst.LastBilledUsage())

	// Same value is allowed; it only refreshes the timestamp.
	require.NoError(t, inst.AdvanceBilledUsage(1000))
}

func TestNewInstanceValidation(t *testing.T) {
	_, err := NewInstance(0, 2, 3)
	assert.Error(t, err)
	_, err = NewInstance(1, 0, 3)
	assert.Error(t, err)
	_, err = NewInstance(1, 2, 0)
	assert.Error(t, err)
}
