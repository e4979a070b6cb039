package payment

import (
	"context"
	"fmt"

	appledger "github.com/vetiver-net/vetiver/internal/application/ledger"
	ledgerDomain "github.com/vetiver-net/vetiver/internal/domain/ledger"
	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// LedgerService is the slice of the ledger the payment workflow needs.
type LedgerService interface {
	CreateTransaction(ctx context.Context, cmd appledger.CreateTransactionCommand) (*ledgerDomain.Transaction, error)
}

// ApprovePaymentCommand is an admin verdict on a submitted request.
type ApprovePaymentCommand struct {
	RequestID uint
	AdminID   uint
}

// ApprovePaymentUseCase credits the user's balance and completes the request.
// Credit and completion commit in one transaction: a completed request always
// has its credit, and a request that loses a concurrent race keeps neither.
type ApprovePaymentUseCase struct {
	requests  paymentDomain.Repository
	ledger    LedgerService
	txManager appledger.TxManager
	publisher events.EventPublisher
	logger    logger.Interface
}

func NewApprovePaymentUseCase(
	requests paymentDomain.Repository,
	ledger LedgerService,
	txManager appledger.TxManager,
	publisher events.EventPublisher,
	logger logger.Interface,
) *ApprovePaymentUseCase {
	return &ApprovePaymentUseCase{
		requests:  requests,
		ledger:    ledger,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *ApprovePaymentUseCase) Execute(ctx context.Context, cmd ApprovePaymentCommand) error {
	req, err := uc.requests.GetByID(ctx, cmd.RequestID)
	if err != nil {
		return err
	}
	if req.Status() != paymentDomain.StatusSubmitted {
		return errors.NewValidationError("only submitted requests can be approved",
			"current status: "+string(req.Status()))
	}

	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.ledger.CreateTransaction(txCtx, appledger.CreateTransactionCommand{
			UserID:      req.UserID(),
			Amount:      req.Amount(),
			Type:        ledgerDomain.TypeCredit,
			Reason:      ledgerDomain.ReasonTopUp,
			Description: fmt.Sprintf("payment request %s approved", req.TrackingID()),
		}); err != nil {
			return err
		}
		if err := req.MarkCompleted(); err != nil {
			return errors.NewValidationError("cannot complete request", err.Error())
		}
		return uc.requests.Update(txCtx, req)
	})
	if err != nil {
		uc.logger.Errorw("approval rolled back, request stays submitted",
			"request_id", req.ID(), "error", err)
		return err
	}

	uc.logger.Infow("payment approved",
		"request_id", req.ID(), "user_id", req.UserID(),
		"amount", req.Amount(), "admin_id", cmd.AdminID)

	if uc.publisher != nil {
		if err := uc.publisher.Publish(paymentDomain.NewRequestCompletedEvent(req)); err != nil {
			uc.logger.Warnw("failed to publish request completed event",
				"request_id", req.ID(), "error", err)
		}
	}
	return nil
}
