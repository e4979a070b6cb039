package payment

import (
	"context"

	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// RejectPaymentCommand is an admin rejection with a mandatory reason.
type RejectPaymentCommand struct {
	RequestID   uint
	AdminID     uint
	Description string
}

// RejectPaymentUseCase fails a submitted request without any ledger effect.
type RejectPaymentUseCase struct {
	requests  paymentDomain.Repository
	publisher events.EventPublisher
	logger    logger.Interface
}

func NewRejectPaymentUseCase(
	requests paymentDomain.Repository,
	publisher events.EventPublisher,
	logger logger.Interface,
) *RejectPaymentUseCase {
	return &RejectPaymentUseCase{
		requests:  requests,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *RejectPaymentUseCase) Execute(ctx context.Context, cmd RejectPaymentCommand) error {
	if cmd.Description == "" {
		return errors.NewValidationError("rejection description is required")
	}

	req, err := uc.requests.GetByID(ctx, cmd.RequestID)
	if err != nil {
		return err
	}

	if err := req.MarkRejected(cmd.Description); err != nil {
		return errors.NewValidationError("cannot reject request", err.Error())
	}
	if err := uc.requests.Update(ctx, req); err != nil {
		return err
	}

	uc.logger.Infow("payment rejected",
		"request_id", req.ID(), "user_id", req.UserID(),
		"admin_id", cmd.AdminID, "reason", cmd.Description)

	if uc.publisher != nil {
		if err := uc.publisher.Publish(paymentDomain.NewRequestRejectedEvent(req, cmd.Description)); err != nil {
			uc.logger.Warnw("failed to publish request rejected event",
				"request_id", req.ID(), "error", err)
		}
	}
	return nil
}
