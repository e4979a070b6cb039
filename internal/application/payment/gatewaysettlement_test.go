package payment_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	appledger "github.com/vetiver-net/vetiver/internal/application/ledger"
	apppayment "github.com/vetiver-net/vetiver/internal/application/payment"
	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
	"github.com/vetiver-net/vetiver/internal/infrastructure/repository"
	"github.com/vetiver-net/vetiver/internal/shared/db"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// settlementFixture wires the gateway workflow against real repositories and
// a real transaction manager on an in-memory database, so version checks and
// rollbacks behave as they do in production.
type settlementFixture struct {
	gdb       *gorm.DB
	users     userDomain.Repository
	requests  paymentDomain.Repository
	txManager *db.TransactionManager
	ledger    *appledger.Service
	callback  *apppayment.HandleGatewayCallbackUseCase
	create    *apppayment.CreatePaymentRequestUseCase
}

// gatewayStub stands in for the external gateway client: initiation succeeds
// and reports the request as submitted.
type gatewayStub struct{}

func (gatewayStub) Initiate(ctx context.Context, req *paymentDomain.PaymentRequest, u *userDomain.User) (*apppayment.StrategyResult, error) {
	return &apppayment.StrategyResult{
		PaymentURL: "https://gateway.example/pay/" + req.TrackingID(),
		Submitted:  true,
	}, nil
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.UserModel{},
		&models.TransactionModel{},
		&models.PaymentRequestModel{},
	))

	log := logger.NewLogger()
	users := repository.NewUserRepository(gdb, log)
	transactions := repository.NewTransactionRepository(gdb, log)
	requests := repository.NewPaymentRequestRepository(gdb, log)
	txManager := db.NewTransactionManager(gdb)
	ledgerService := appledger.NewService(users, transactions, txManager, nil, log)

	registry := apppayment.NewRegistry()
	registry.Register(paymentDomain.MethodGatewayX, gatewayStub{})

	return &settlementFixture{
		gdb:       gdb,
		users:     users,
		requests:  requests,
		txManager: txManager,
		ledger:    ledgerService,
		callback:  apppayment.NewHandleGatewayCallbackUseCase(requests, ledgerService, txManager, nil, log),
		create:    apppayment.NewCreatePaymentRequestUseCase(users, requests, registry, nil, log),
	}
}

func (f *settlementFixture) seedUser(t *testing.T) *userDomain.User {
	t.Helper()
	u, err := userDomain.NewUser("payer@example.com")
	require.NoError(t, err)
	u.GrantPaymentMethod(paymentDomain.MethodGatewayX.Bit())
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *settlementFixture) transactionCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.gdb.Model(&models.TransactionModel{}).Count(&n).Error)
	return n
}

func TestGatewayRequestCreationPersistsSubmitted(t *testing.T) {
	f := newSettlementFixture(t)
	u := f.seedUser(t)
	ctx := context.Background()

	result, err := f.create.Execute(ctx, apppayment.CreatePaymentRequestCommand{
		UserID: u.ID(),
		Amount: 5000,
		Method: string(paymentDomain.MethodGatewayX),
	})
	require.NoError(t, err)
	assert.Equal(t, string(paymentDomain.StatusSubmitted), result.Status)
	assert.NotEmpty(t, result.PaymentURL)

	stored, err := f.requests.GetByTrackingID(ctx, result.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, paymentDomain.StatusSubmitted, stored.Status())
}

func TestGatewayWebhookSettlesOnceAcrossRedeliveries(t *testing.T) {
	f := newSettlementFixture(t)
	u := f.seedUser(t)
	ctx := context.Background()

	result, err := f.create.Execute(ctx, apppayment.CreatePaymentRequestCommand{
		UserID: u.ID(),
		Amount: 5000,
		Method: string(paymentDomain.MethodGatewayX),
	})
	require.NoError(t, err)

	require.NoError(t, f.callback.Execute(ctx, apppayment.GatewayCallbackCommand{
		TrackingID:           result.TrackingID,
		Success:              true,
		GatewayTransactionID: "gw-789",
	}))

	stored, err := f.requests.GetByTrackingID(ctx, result.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, paymentDomain.StatusCompleted, stored.Status())
	assert.Equal(t, int64(1), f.transactionCount(t))

	payer, err := f.users.GetByID(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), payer.Balance())

	// The gateway redelivers; the settled request must not credit again.
	for i := 0; i < 3; i++ {
		require.NoError(t, f.callback.Execute(ctx, apppayment.GatewayCallbackCommand{
			TrackingID: result.TrackingID,
			Success:    true,
		}))
	}
	assert.Equal(t, int64(1), f.transactionCount(t))

	payer, err = f.users.GetByID(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), payer.Balance())
}

func TestGatewayWebhookRollsBackWhenCreditFails(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	// A request whose user is gone: the credit inside the settlement
	// transaction fails, which must roll the status change back too.
	orphan, err := paymentDomain.NewPaymentRequest(999, 5000, paymentDomain.MethodGatewayX)
	require.NoError(t, err)
	require.NoError(t, f.requests.Create(ctx, orphan))

	err = f.callback.Execute(ctx, apppayment.GatewayCallbackCommand{
		TrackingID: orphan.TrackingID(),
		Success:    true,
	})
	require.Error(t, err)

	stored, err := f.requests.GetByTrackingID(ctx, orphan.TrackingID())
	require.NoError(t, err)
	assert.Equal(t, paymentDomain.StatusPending, stored.Status(),
		"a failed settlement must leave the request open for redelivery")
	assert.Equal(t, int64(0), f.transactionCount(t))
}
