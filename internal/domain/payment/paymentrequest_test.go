package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPending(t *testing.T, method Method) *PaymentRequest {
	t.Helper()
	req, err := NewPaymentRequest(1, 5000, method)
	require.NoError(t, err)
	return req
}

func TestNewPaymentRequest(t *testing.T) {
	req := newPending(t, MethodCardToCard)

	assert.Equal(t, StatusPending, req.Status())
	assert.NotEmpty(t, req.TrackingID())
	assert.Equal(t, 0, req.Version())

	_, err := NewPaymentRequest(0, 5000, MethodCardToCard)
	assert.Error(t, err)
	_, err = NewPaymentRequest(1, 0, MethodCardToCard)
	assert.Error(t, err)
}

func TestCardToCardHappyPath(t *testing.T) {
	req := newPending(t, MethodCardToCard)
	req.AttachBankAccount(7)

	require.NoError(t, req.MarkSubmitted("receipts/a.jpg", "receipts/a_thumb.jpg"))
	assert.Equal(t, StatusSubmitted, req.Status())
	require.NotNil(t, req.ReceiptPath())

	// Re-submission is rejected.
	assert.Error(t, req.MarkSubmitted("receipts/b.jpg", "receipts/b_thumb.jpg"))

	require.NoError(t, req.MarkCompleted())
	assert.Equal(t, StatusCompleted, req.Status())
	assert.True(t, req.Status().IsFinal())
}

func TestRejection(t *testing.T) {
	req := newPending(t, MethodCardToCard)
	require.NoError(t, req.MarkSubmitted("receipts/a.jpg", "receipts/a_thumb.jpg"))

	assert.Error(t, req.MarkRejected(""), "description is mandatory")

	require.NoError(t, req.MarkRejected("amount mismatch"))
	assert.Equal(t, StatusFailed, req.Status())
	require.NotNil(t, req.RejectDescription())
	assert.Equal(t, "amount mismatch", *req.RejectDescription())
}

func TestIllegalVerdicts(t *testing.T) {
	pending := newPending(t, MethodCardToCard)
	assert.Error(t, pending.MarkCompleted(), "cannot complete before submission")
	assert.Error(t, pending.MarkRejected("nope"), "cannot reject before submission")

	completed := newPending(t, MethodGatewayX)
	require.NoError(t, completed.MarkSubmittedByGateway())
	require.NoError(t, completed.MarkCompleted())

	assert.Error(t, completed.MarkCompleted(), "completed is final")
	assert.Error(t, completed.MarkRejected("late"), "completed is final")
	assert.Error(t, completed.MarkFailed("late"), "completed is final")
}

func TestMarkFailedFromPending(t *testing.T) {
	req := newPending(t, MethodGatewayX)
	require.NoError(t, req.MarkFailed("method denied"))
	assert.Equal(t, StatusFailed, req.Status())
	assert.True(t, req.Status().IsFinal())

	assert.Error(t, req.MarkFailed("again"))
}

func TestVersionAdvancesOnMutation(t *testing.T) {
	req := newPending(t, MethodGatewayX)
	v := req.Version()

	req.SetGatewayTransactionID("gw-123")
	assert.Greater(t, req.Version(), v)

	v = req.Version()
	require.NoError(t, req.MarkSubmittedByGateway())
	assert.Greater(t, req.Version(), v)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("gateway_x")
	require.NoError(t, err)
	assert.Equal(t, MethodGatewayX, m)

	_, err = ParseMethod("paypal")
	assert.Error(t, err)
}
