package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetiver-net/vetiver/internal/domain/instance"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
	apperrors "github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

func TestInstanceUpdateAfterMultipleMutations(t *testing.T) {
	gdb := setupTestDB(t, &models.InstanceModel{})
	repo := NewInstanceRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	inst, err := instance.NewInstance(1, 2, 3)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, inst))

	// Finalize and the first watermark advance in one persistence cycle.
	require.NoError(t, inst.Finalize("docker-1", "prov-1"))
	require.NoError(t, inst.AdvanceBilledUsage(1024))
	require.NoError(t, repo.Update(ctx, inst))

	found, err := repo.GetByID(ctx, inst.ID())
	require.NoError(t, err)
	assert.Equal(t, instance.StatusRunning, found.Status())
	assert.Equal(t, uint64(1024), found.LastBilledUsage())
	assert.Equal(t, inst.Version(), found.Version())
}

func TestInstanceStaleUpdateConflicts(t *testing.T) {
	gdb := setupTestDB(t, &models.InstanceModel{})
	repo := NewInstanceRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	seed, err := instance.NewInstance(1, 2, 3)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, seed))
	require.NoError(t, seed.Finalize("docker-1", "prov-1"))
	require.NoError(t, repo.Update(ctx, seed))

	billing, err := repo.GetByID(ctx, seed.ID())
	require.NoError(t, err)
	pauser, err := repo.GetByID(ctx, seed.ID())
	require.NoError(t, err)

	require.NoError(t, pauser.PauseBySystem())
	require.NoError(t, repo.Update(ctx, pauser))

	require.NoError(t, billing.AdvanceBilledUsage(2048))
	err = repo.Update(ctx, billing)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))
}
