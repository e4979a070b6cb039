package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vetiver-net/vetiver/internal/domain/payment"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
	apperrors "github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

func setupTestDB(t *testing.T, migrate ...interface{}) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(migrate...))
	return gdb
}

func TestPaymentRequestUpdateAfterMultipleMutations(t *testing.T) {
	gdb := setupTestDB(t, &models.PaymentRequestModel{})
	repo := NewPaymentRequestRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	req, err := payment.NewPaymentRequest(1, 5000, payment.MethodGatewayX)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, req))

	// The gateway initiation path mutates the aggregate twice before the
	// single save: transaction id attach plus the pending → submitted move.
	req.SetGatewayTransactionID("gw-42")
	require.NoError(t, req.MarkSubmittedByGateway())
	require.NoError(t, repo.Update(ctx, req))

	found, err := repo.GetByTrackingID(ctx, req.TrackingID())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSubmitted, found.Status())
	require.NotNil(t, found.GatewayTransactionID())
	assert.Equal(t, "gw-42", *found.GatewayTransactionID())
	assert.Equal(t, req.Version(), found.Version())

	// A second persistence cycle on the same aggregate still goes through.
	require.NoError(t, req.MarkCompleted())
	require.NoError(t, repo.Update(ctx, req))
}

func TestPaymentRequestStaleUpdateConflicts(t *testing.T) {
	gdb := setupTestDB(t, &models.PaymentRequestModel{})
	repo := NewPaymentRequestRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	seed, err := payment.NewPaymentRequest(1, 5000, payment.MethodGatewayX)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, seed))

	first, err := repo.GetByID(ctx, seed.ID())
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, seed.ID())
	require.NoError(t, err)

	require.NoError(t, first.MarkSubmittedByGateway())
	require.NoError(t, repo.Update(ctx, first))

	require.NoError(t, second.MarkSubmittedByGateway())
	err = repo.Update(ctx, second)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err),
		"the stale copy must lose the version check")
}
