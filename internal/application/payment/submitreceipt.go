package payment

import (
	"context"
	"io"

	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// ReceiptStore persists an uploaded receipt image and its thumbnail, returning
// the stored paths.
type ReceiptStore interface {
	Save(ctx context.Context, trackingID string, file io.Reader) (receiptPath, thumbnailPath string, err error)
}

// SubmitReceiptCommand carries the uploaded transfer receipt.
type SubmitReceiptCommand struct {
	RequestID uint
	UserID    uint
	File      io.Reader
}

// SubmitReceiptUseCase attaches a transfer receipt to a pending card-to-card
// request and moves it to submitted. Re-submission is rejected; a submitted
// request waits for an admin verdict.
type SubmitReceiptUseCase struct {
	requests paymentDomain.Repository
	receipts ReceiptStore
	logger   logger.Interface
}

func NewSubmitReceiptUseCase(
	requests paymentDomain.Repository,
	receipts ReceiptStore,
	logger logger.Interface,
) *SubmitReceiptUseCase {
	return &SubmitReceiptUseCase{
		requests: requests,
		receipts: receipts,
		logger:   logger,
	}
}

func (uc *SubmitReceiptUseCase) Execute(ctx context.Context, cmd SubmitReceiptCommand) error {
	if cmd.File == nil {
		return errors.NewValidationError("receipt file is required")
	}

	req, err := uc.requests.GetByID(ctx, cmd.RequestID)
	if err != nil {
		return err
	}
	if req.UserID() != cmd.UserID {
		return errors.NewNotFoundError("payment request not found")
	}
	if req.Method() != paymentDomain.MethodCardToCard {
		return errors.NewValidationError("receipts only apply to card payments")
	}
	if req.Status() != paymentDomain.StatusPending {
		return errors.NewValidationError("receipt already submitted",
			"current status: "+string(req.Status()))
	}

	receiptPath, thumbnailPath, err := uc.receipts.Save(ctx, req.TrackingID(), cmd.File)
	if err != nil {
		return errors.NewInternalError("failed to store receipt", err.Error())
	}

	if err := req.MarkSubmitted(receiptPath, thumbnailPath); err != nil {
		return errors.NewValidationError("cannot submit receipt", err.Error())
	}
	if err := uc.requests.Update(ctx, req); err != nil {
		return err
	}

	uc.logger.Infow("receipt submitted",
		"request_id", req.ID(), "user_id", cmd.UserID)
	return nil
}
