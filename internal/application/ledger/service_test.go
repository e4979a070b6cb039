package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerDomain "github.com/vetiver-net/vetiver/internal/domain/ledger"
	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

type fakeUserRepo struct {
	users map[uint]*userDomain.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *userDomain.User) error { return nil }
func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (*userDomain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.NewNotFoundError("user not found")
	}
	return u, nil
}
func (f *fakeUserRepo) Update(ctx context.Context, u *userDomain.User) error { return nil }
func (f *fakeUserRepo) UpdateBalance(ctx context.Context, id uint, delta int64) error {
	u, ok := f.users[id]
	if !ok {
		return errors.NewNotFoundError("user not found")
	}
	u.ApplyBalanceDelta(delta)
	return nil
}

type fakeTransactionRepo struct {
	entries []*ledgerDomain.Transaction
}

func (f *fakeTransactionRepo) Create(ctx context.Context, tx *ledgerDomain.Transaction) error {
	tx.SetID(uint(len(f.entries) + 1))
	f.entries = append(f.entries, tx)
	return nil
}

func (f *fakeTransactionRepo) GetByID(ctx context.Context, id uint) (*ledgerDomain.Transaction, error) {
	for _, tx := range f.entries {
		if tx.ID() == id {
			return tx, nil
		}
	}
	return nil, errors.NewNotFoundError("transaction not found")
}

func (f *fakeTransactionRepo) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*ledgerDomain.Transaction, error) {
	var out []*ledgerDomain.Transaction
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].UserID() == userID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

// passthroughTxManager runs the function directly; the fakes have no real
// transaction to join.
type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	published []events.DomainEvent
}

func (r *recordingPublisher) Publish(event events.DomainEvent) error {
	r.published = append(r.published, event)
	return nil
}

func (r *recordingPublisher) PublishAll(evts []events.DomainEvent) error {
	r.published = append(r.published, evts...)
	return nil
}

type serviceFixture struct {
	service   *Service
	users     *fakeUserRepo
	txRepo    *fakeTransactionRepo
	publisher *recordingPublisher
}

func newServiceFixture(t *testing.T, balance, credit int64) *serviceFixture {
	t.Helper()
	now := time.Now().UTC()
	users := &fakeUserRepo{users: map[uint]*userDomain.User{
		1: userDomain.ReconstructUser(1, "user@example.com", balance, credit, 1.0, 0, false, false, now, now),
	}}
	txRepo := &fakeTransactionRepo{}
	publisher := &recordingPublisher{}
	return &serviceFixture{
		service:   NewService(users, txRepo, passthroughTxManager{}, publisher, logger.NewLogger()),
		users:     users,
		txRepo:    txRepo,
		publisher: publisher,
	}
}

func TestCreditIncreasesBalance(t *testing.T) {
	fx := newServiceFixture(t, 100, 0)

	tx, err := fx.service.CreateTransaction(context.Background(), CreateTransactionCommand{
		UserID: 1, Amount: 500, Type: ledgerDomain.TypeCredit, Reason: ledgerDomain.ReasonTopUp,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100), tx.BalanceBefore())
	assert.Equal(t, int64(600), tx.BalanceAfter())

	u, _ := fx.users.GetByID(context.Background(), 1)
	assert.Equal(t, int64(600), u.Balance())
}

func TestManualDebitCannotOverdraw(t *testing.T) {
	fx := newServiceFixture(t, 100, 0)

	_, err := fx.service.CreateTransaction(context.Background(), CreateTransactionCommand{
		UserID: 1, Amount: 150, Type: ledgerDomain.TypeDebit, Reason: ledgerDomain.ReasonManualDebit,
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	// Nothing was appended and the balance is untouched.
	assert.Empty(t, fx.txRepo.entries)
	u, _ := fx.users.GetByID(context.Background(), 1)
	assert.Equal(t, int64(100), u.Balance())
}

func TestServiceUsageDebitBypassesOverdrawGuard(t *testing.T) {
	fx := newServiceFixture(t, 100, 0)

	tx, err := fx.service.CreateTransaction(context.Background(), CreateTransactionCommand{
		UserID: 1, Amount: 150, Type: ledgerDomain.TypeDebit, Reason: ledgerDomain.ReasonServiceUsage,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-50), tx.BalanceAfter())

	u, _ := fx.users.GetByID(context.Background(), 1)
	assert.Equal(t, int64(-50), u.Balance())
}

func TestManualDebitToExactlyZeroIsAllowed(t *testing.T) {
	fx := newServiceFixture(t, 100, 0)

	tx, err := fx.service.CreateTransaction(context.Background(), CreateTransactionCommand{
		UserID: 1, Amount: 100, Type: ledgerDomain.TypeDebit, Reason: ledgerDomain.ReasonManualDebit,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), tx.BalanceAfter())
}

func TestNonPositiveAmountRejected(t *testing.T) {
	fx := newServiceFixture(t, 100, 0)

	for _, amount := range []int64{0, -50} {
		_, err := fx.service.CreateTransaction(context.Background(), CreateTransactionCommand{
			UserID: 1, Amount: amount, Type: ledgerDomain.TypeCredit, Reason: ledgerDomain.ReasonTopUp,
		})
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	}
	assert.Empty(t, fx.txRepo.entries)
}

func TestBalanceChangedEventPublished(t *testing.T) {
	fx := newServiceFixture(t, 1000, 0)

	_, err := fx.service.CreateTransaction(context.Background(), CreateTransactionCommand{
		UserID: 1, Amount: 300, Type: ledgerDomain.TypeDebit, Reason: ledgerDomain.ReasonServiceUsage,
	})
	require.NoError(t, err)

	require.Len(t, fx.publisher.published, 1)
	event, ok := fx.publisher.published[0].(*ledgerDomain.BalanceChangedEvent)
	require.True(t, ok)
	assert.Equal(t, ledgerDomain.EventTypeBalanceChanged, event.GetEventType())
	assert.Equal(t, uint(1), event.UserID)
	assert.Equal(t, int64(700), event.BalanceAfter)
}

func TestNoEventOnRejectedEntry(t *testing.T) {
	fx := newServiceFixture(t, 100, 0)

	_, err := fx.service.CreateTransaction(context.Background(), CreateTransactionCommand{
		UserID: 1, Amount: 500, Type: ledgerDomain.TypeDebit, Reason: ledgerDomain.ReasonManualDebit,
	})
	require.Error(t, err)
	assert.Empty(t, fx.publisher.published)
}

func TestEntriesChainAcrossTransactions(t *testing.T) {
	fx := newServiceFixture(t, 1000, 0)
	ctx := context.Background()

	first, err := fx.service.CreateTransaction(ctx, CreateTransactionCommand{
		UserID: 1, Amount: 100, Type: ledgerDomain.TypeDebit, Reason: ledgerDomain.ReasonServiceUsage,
	})
	require.NoError(t, err)
	second, err := fx.service.CreateTransaction(ctx, CreateTransactionCommand{
		UserID: 1, Amount: 100, Type: ledgerDomain.TypeDebit, Reason: ledgerDomain.ReasonServiceUsage,
	})
	require.NoError(t, err)

	assert.Equal(t, first.BalanceAfter(), second.BalanceBefore())
	assert.Equal(t, int64(800), second.BalanceAfter())
}

func TestListTransactionsClampsPaging(t *testing.T) {
	fx := newServiceFixture(t, 1000, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := fx.service.CreateTransaction(ctx, CreateTransactionCommand{
			UserID: 1, Amount: 10, Type: ledgerDomain.TypeCredit, Reason: ledgerDomain.ReasonTopUp,
		})
		require.NoError(t, err)
	}

	list, err := fx.service.ListTransactions(ctx, 1, -5, -1)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
