package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionArithmetic(t *testing.T) {
	tests := []struct {
		name          string
		amount        int64
		txType        Type
		balanceBefore int64
		wantAfter     int64
	}{
		{"credit increases balance", 500, TypeCredit, 100, 600},
		{"debit decreases balance", 300, TypeDebit, 1000, 700},
		{"service usage debit may go negative", 150, TypeDebit, 100, -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := NewTransaction(1, tt.amount, tt.txType, ReasonServiceUsage, tt.balanceBefore, "")
			require.NoError(t, err)

			assert.Equal(t, tt.balanceBefore, tx.BalanceBefore())
			assert.Equal(t, tt.wantAfter, tx.BalanceAfter())
			assert.Equal(t, tx.BalanceBefore()+tx.SignedAmount(), tx.BalanceAfter())
		})
	}
}

func TestNewTransactionValidation(t *testing.T) {
	_, err := NewTransaction(0, 100, TypeCredit, ReasonTopUp, 0, "")
	assert.Error(t, err, "user id required")

	_, err = NewTransaction(1, 0, TypeCredit, ReasonTopUp, 0, "")
	assert.Error(t, err, "zero amount rejected")

	_, err = NewTransaction(1, -100, TypeDebit, ReasonServiceUsage, 0, "")
	assert.Error(t, err, "negative amount rejected")

	_, err = NewTransaction(1, 100, Type("transfer"), ReasonTopUp, 0, "")
	assert.Error(t, err, "unknown type rejected")
}

func TestSignedAmount(t *testing.T) {
	credit, err := NewTransaction(1, 250, TypeCredit, ReasonTopUp, 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(250), credit.SignedAmount())

	debit, err := NewTransaction(1, 250, TypeDebit, ReasonManualDebit, 1000, "")
	require.NoError(t, err)
	assert.Equal(t, int64(-250), debit.SignedAmount())
}

func TestParseTypeAndReason(t *testing.T) {
	typ, err := ParseType("debit")
	require.NoError(t, err)
	assert.Equal(t, TypeDebit, typ)

	_, err = ParseType("withdrawal")
	assert.Error(t, err)

	reason, err := ParseReason("service_usage")
	require.NoError(t, err)
	assert.Equal(t, ReasonServiceUsage, reason)

	_, err = ParseReason("bonus")
	assert.Error(t, err)
}
