package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appledger "github.com/vetiver-net/vetiver/internal/application/ledger"
	ledgerDomain "github.com/vetiver-net/vetiver/internal/domain/ledger"
	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

type fakeRequestRepo struct {
	requests map[uint]*paymentDomain.PaymentRequest
	nextID   uint
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[uint]*paymentDomain.PaymentRequest{}, nextID: 1}
}

func (f *fakeRequestRepo) Create(ctx context.Context, req *paymentDomain.PaymentRequest) error {
	req.SetID(f.nextID)
	f.nextID++
	f.requests[req.ID()] = req
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id uint) (*paymentDomain.PaymentRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, errors.NewNotFoundError("payment request not found")
	}
	return req, nil
}

func (f *fakeRequestRepo) GetByTrackingID(ctx context.Context, trackingID string) (*paymentDomain.PaymentRequest, error) {
	for _, req := range f.requests {
		if req.TrackingID() == trackingID {
			return req, nil
		}
	}
	return nil, errors.NewNotFoundError("payment request not found")
}

func (f *fakeRequestRepo) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*paymentDomain.PaymentRequest, error) {
	var out []*paymentDomain.PaymentRequest
	for _, req := range f.requests {
		if req.UserID() == userID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) Update(ctx context.Context, req *paymentDomain.PaymentRequest) error {
	f.requests[req.ID()] = req
	return nil
}

// fakeLedger records posted credits; it can be told to fail.
type fakeLedger struct {
	posted []appledger.CreateTransactionCommand
	fail   error
}

func (f *fakeLedger) CreateTransaction(ctx context.Context, cmd appledger.CreateTransactionCommand) (*ledgerDomain.Transaction, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	tx, err := ledgerDomain.NewTransaction(cmd.UserID, cmd.Amount, cmd.Type, cmd.Reason, 0, cmd.Description)
	if err != nil {
		return nil, err
	}
	f.posted = append(f.posted, cmd)
	return tx, nil
}

// passthroughTxManager runs the function directly; the fakes have no real
// transaction to join.
type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func seedRequest(t *testing.T, repo *fakeRequestRepo, method paymentDomain.Method) *paymentDomain.PaymentRequest {
	t.Helper()
	req, err := paymentDomain.NewPaymentRequest(1, 5000, method)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), req))
	return req
}

func seedSubmitted(t *testing.T, repo *fakeRequestRepo) *paymentDomain.PaymentRequest {
	t.Helper()
	req := seedRequest(t, repo, paymentDomain.MethodCardToCard)
	require.NoError(t, req.MarkSubmitted("receipts/a.jpg", "receipts/a_thumb.jpg"))
	return req
}

func TestApproveCreditsAndCompletes(t *testing.T) {
	repo := newFakeRequestRepo()
	ledger := &fakeLedger{}
	req := seedSubmitted(t, repo)

	uc := NewApprovePaymentUseCase(repo, ledger, passthroughTxManager{}, nil, logger.NewLogger())
	require.NoError(t, uc.Execute(context.Background(), ApprovePaymentCommand{RequestID: req.ID(), AdminID: 9}))

	assert.Equal(t, paymentDomain.StatusCompleted, req.Status())
	require.Len(t, ledger.posted, 1)
	assert.Equal(t, req.Amount(), ledger.posted[0].Amount)
	assert.Equal(t, ledgerDomain.TypeCredit, ledger.posted[0].Type)
	assert.Equal(t, ledgerDomain.ReasonTopUp, ledger.posted[0].Reason)
}

func TestApproveRequiresSubmittedStatus(t *testing.T) {
	repo := newFakeRequestRepo()
	ledger := &fakeLedger{}
	uc := NewApprovePaymentUseCase(repo, ledger, passthroughTxManager{}, nil, logger.NewLogger())

	pending := seedRequest(t, repo, paymentDomain.MethodCardToCard)
	err := uc.Execute(context.Background(), ApprovePaymentCommand{RequestID: pending.ID()})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	completed := seedSubmitted(t, repo)
	require.NoError(t, completed.MarkCompleted())
	err = uc.Execute(context.Background(), ApprovePaymentCommand{RequestID: completed.ID()})
	require.Error(t, err, "re-approval of a completed request is rejected")

	assert.Empty(t, ledger.posted)
}

func TestApproveKeepsRequestSubmittedOnLedgerFailure(t *testing.T) {
	repo := newFakeRequestRepo()
	ledger := &fakeLedger{fail: errors.NewInternalError("ledger unavailable")}
	req := seedSubmitted(t, repo)

	uc := NewApprovePaymentUseCase(repo, ledger, passthroughTxManager{}, nil, logger.NewLogger())
	err := uc.Execute(context.Background(), ApprovePaymentCommand{RequestID: req.ID()})
	require.Error(t, err)

	assert.Equal(t, paymentDomain.StatusSubmitted, req.Status(),
		"a failed credit must leave the request open for retry")
}

func TestRejectRequiresDescription(t *testing.T) {
	repo := newFakeRequestRepo()
	req := seedSubmitted(t, repo)

	uc := NewRejectPaymentUseCase(repo, nil, logger.NewLogger())
	err := uc.Execute(context.Background(), RejectPaymentCommand{RequestID: req.ID()})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, paymentDomain.StatusSubmitted, req.Status())
}

func TestRejectFailsRequestWithoutLedgerEffect(t *testing.T) {
	repo := newFakeRequestRepo()
	req := seedSubmitted(t, repo)

	uc := NewRejectPaymentUseCase(repo, nil, logger.NewLogger())
	require.NoError(t, uc.Execute(context.Background(), RejectPaymentCommand{
		RequestID: req.ID(), AdminID: 9, Description: "amount mismatch",
	}))

	assert.Equal(t, paymentDomain.StatusFailed, req.Status())
	require.NotNil(t, req.RejectDescription())
	assert.Equal(t, "amount mismatch", *req.RejectDescription())
}

func TestRejectOnlyFromSubmitted(t *testing.T) {
	repo := newFakeRequestRepo()
	pending := seedRequest(t, repo, paymentDomain.MethodCardToCard)

	uc := NewRejectPaymentUseCase(repo, nil, logger.NewLogger())
	err := uc.Execute(context.Background(), RejectPaymentCommand{
		RequestID: pending.ID(), Description: "nope",
	})
	require.Error(t, err)
	assert.Equal(t, paymentDomain.StatusPending, pending.Status())
}

func TestGatewayCallbackSettlesPendingRequest(t *testing.T) {
	repo := newFakeRequestRepo()
	ledger := &fakeLedger{}
	req := seedRequest(t, repo, paymentDomain.MethodGatewayX)

	uc := NewHandleGatewayCallbackUseCase(repo, ledger, passthroughTxManager{}, nil, logger.NewLogger())
	require.NoError(t, uc.Execute(context.Background(), GatewayCallbackCommand{
		TrackingID:           req.TrackingID(),
		Success:              true,
		GatewayTransactionID: "gw-123",
	}))

	assert.Equal(t, paymentDomain.StatusCompleted, req.Status())
	require.NotNil(t, req.GatewayTransactionID())
	assert.Equal(t, "gw-123", *req.GatewayTransactionID())
	require.Len(t, ledger.posted, 1)
	assert.Equal(t, ledgerDomain.TypeCredit, ledger.posted[0].Type)
}

func TestGatewayCallbackIsIdempotentOnFinalRequests(t *testing.T) {
	repo := newFakeRequestRepo()
	ledger := &fakeLedger{}
	uc := NewHandleGatewayCallbackUseCase(repo, ledger, passthroughTxManager{}, nil, logger.NewLogger())

	req := seedRequest(t, repo, paymentDomain.MethodGatewayX)
	require.NoError(t, uc.Execute(context.Background(), GatewayCallbackCommand{
		TrackingID: req.TrackingID(), Success: true,
	}))
	require.Len(t, ledger.posted, 1)

	// Redelivery of the same webhook: acknowledged, no second credit.
	require.NoError(t, uc.Execute(context.Background(), GatewayCallbackCommand{
		TrackingID: req.TrackingID(), Success: true,
	}))
	assert.Len(t, ledger.posted, 1)

	// A contradictory late failure delivery is ignored too.
	require.NoError(t, uc.Execute(context.Background(), GatewayCallbackCommand{
		TrackingID: req.TrackingID(), Success: false,
	}))
	assert.Equal(t, paymentDomain.StatusCompleted, req.Status())
}

func TestGatewayCallbackFailureMarksRequestFailed(t *testing.T) {
	repo := newFakeRequestRepo()
	ledger := &fakeLedger{}
	req := seedRequest(t, repo, paymentDomain.MethodGatewayX)

	uc := NewHandleGatewayCallbackUseCase(repo, ledger, passthroughTxManager{}, nil, logger.NewLogger())
	require.NoError(t, uc.Execute(context.Background(), GatewayCallbackCommand{
		TrackingID: req.TrackingID(), Success: false,
	}))

	assert.Equal(t, paymentDomain.StatusFailed, req.Status())
	assert.Empty(t, ledger.posted)

	// Duplicate failure delivery after the request is final: still a no-op.
	require.NoError(t, uc.Execute(context.Background(), GatewayCallbackCommand{
		TrackingID: req.TrackingID(), Success: false,
	}))
}

func TestGatewayCallbackRequiresTrackingID(t *testing.T) {
	uc := NewHandleGatewayCallbackUseCase(newFakeRequestRepo(), &fakeLedger{}, passthroughTxManager{}, nil, logger.NewLogger())

	err := uc.Execute(context.Background(), GatewayCallbackCommand{Success: true})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestGatewayCallbackUnknownTrackingID(t *testing.T) {
	uc := NewHandleGatewayCallbackUseCase(newFakeRequestRepo(), &fakeLedger{}, passthroughTxManager{}, nil, logger.NewLogger())

	err := uc.Execute(context.Background(), GatewayCallbackCommand{
		TrackingID: "trk_missing", Success: true,
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestGatewayCallbackLedgerFailureLeavesRequestOpen(t *testing.T) {
	repo := newFakeRequestRepo()
	ledger := &fakeLedger{fail: errors.NewInternalError("ledger unavailable")}
	req := seedRequest(t, repo, paymentDomain.MethodGatewayX)

	uc := NewHandleGatewayCallbackUseCase(repo, ledger, passthroughTxManager{}, nil, logger.NewLogger())
	err := uc.Execute(context.Background(), GatewayCallbackCommand{
		TrackingID: req.TrackingID(), Success: true,
	})
	require.Error(t, err)
	assert.NotEqual(t, paymentDomain.StatusCompleted, req.Status(),
		"the request must not complete without its credit")
}
