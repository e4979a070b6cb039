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

// GatewayCallbackCommand is one webhook delivery from the gateway. Success is
// the gateway's verdict on the charge, keyed by our tracking id.
type GatewayCallbackCommand struct {
	TrackingID           string
	Success              bool
	GatewayTransactionID string
}

// HandleGatewayCallbackUseCase settles a gateway payment. The gateway
// redelivers webhooks, so the handler must be idempotent: a request already in
// a final state acknowledges the delivery without doing anything. Out-of-order
// deliveries for a still-pending request are tolerated by advancing it to
// submitted first. The ledger credit and the completion share one transaction,
// so a delivery that loses a race rolls its credit back.
type HandleGatewayCallbackUseCase struct {
	requests  paymentDomain.Repository
	ledger    LedgerService
	txManager appledger.TxManager
	publisher events.EventPublisher
	logger    logger.Interface
}

func NewHandleGatewayCallbackUseCase(
	requests paymentDomain.Repository,
	ledger LedgerService,
	txManager appledger.TxManager,
	publisher events.EventPublisher,
	logger logger.Interface,
) *HandleGatewayCallbackUseCase {
	return &HandleGatewayCallbackUseCase{
		requests:  requests,
		ledger:    ledger,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *HandleGatewayCallbackUseCase) Execute(ctx context.Context, cmd GatewayCallbackCommand) error {
	if cmd.TrackingID == "" {
		return errors.NewValidationError("tracking id is required")
	}

	req, err := uc.requests.GetByTrackingID(ctx, cmd.TrackingID)
	if err != nil {
		return err
	}

	if req.Status().IsFinal() {
		uc.logger.Infow("duplicate gateway callback ignored",
			"request_id", req.ID(), "tracking_id", cmd.TrackingID, "status", req.Status())
		return nil
	}

	if cmd.GatewayTransactionID != "" {
		req.SetGatewayTransactionID(cmd.GatewayTransactionID)
	}

	if !cmd.Success {
		if err := req.MarkFailed("gateway reported payment failure"); err != nil {
			return errors.NewValidationError("cannot fail request", err.Error())
		}
		if err := uc.requests.Update(ctx, req); err != nil {
			return err
		}
		uc.logger.Infow("gateway payment failed",
			"request_id", req.ID(), "tracking_id", cmd.TrackingID)
		return nil
	}

	if req.Status() == paymentDomain.StatusPending {
		if err := req.MarkSubmittedByGateway(); err != nil {
			return errors.NewValidationError("cannot advance request", err.Error())
		}
	}

	// Credit and completion commit together: if a concurrent admin approval
	// wins the version check, this delivery's credit rolls back and the
	// settlement stays posted exactly once.
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.ledger.CreateTransaction(txCtx, appledger.CreateTransactionCommand{
			UserID:      req.UserID(),
			Amount:      req.Amount(),
			Type:        ledgerDomain.TypeCredit,
			Reason:      ledgerDomain.ReasonTopUp,
			Description: fmt.Sprintf("gateway payment %s settled", req.TrackingID()),
		}); err != nil {
			return err
		}
		if err := req.MarkCompleted(); err != nil {
			return errors.NewValidationError("cannot complete request", err.Error())
		}
		return uc.requests.Update(txCtx, req)
	})
	if err != nil {
		uc.logger.Errorw("gateway settlement rolled back, request not completed",
			"request_id", req.ID(), "error", err)
		return err
	}

	uc.logger.Infow("gateway payment completed",
		"request_id", req.ID(), "user_id", req.UserID(), "amount", req.Amount())

	if uc.publisher != nil {
		if err := uc.publisher.Publish(paymentDomain.NewRequestCompletedEvent(req)); err != nil {
			uc.logger.Warnw("failed to publish request completed event",
				"request_id", req.ID(), "error", err)
		}
	}
	return nil
}
