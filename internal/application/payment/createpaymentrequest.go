package payment

import (
	"context"

	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"

	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
)

// CreatePaymentRequestCommand starts a top-up.
type CreatePaymentRequestCommand struct {
	UserID uint
	Amount int64
	Method string
}

// CreatePaymentRequestResult is returned to the user: either the card to
// transfer to, or the gateway payment URL.
type CreatePaymentRequestResult struct {
	RequestID  uint         `json:"request_id"`
	TrackingID string       `json:"tracking_id"`
	Status     string       `json:"status"`
	PaymentURL string       `json:"payment_url,omitempty"`
	Card       *CardDisplay `json:"card,omitempty"`
}

// CreatePaymentRequestUseCase checks method access, persists the request and
// dispatches to the method's strategy. Denied and failed attempts are kept
// with status failed for audit; the row is never discarded.
type CreatePaymentRequestUseCase struct {
	users     userDomain.Repository
	requests  paymentDomain.Repository
	registry  *Registry
	publisher events.EventPublisher
	logger    logger.Interface
}

func NewCreatePaymentRequestUseCase(
	users userDomain.Repository,
	requests paymentDomain.Repository,
	registry *Registry,
	publisher events.EventPublisher,
	logger logger.Interface,
) *CreatePaymentRequestUseCase {
	return &CreatePaymentRequestUseCase{
		users:     users,
		requests:  requests,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *CreatePaymentRequestUseCase) Execute(ctx context.Context, cmd CreatePaymentRequestCommand) (*CreatePaymentRequestResult, error) {
	if cmd.Amount <= 0 {
		return nil, errors.NewValidationError("amount must be positive")
	}
	method, err := paymentDomain.ParseMethod(cmd.Method)
	if err != nil {
		return nil, errors.NewValidationError("unknown payment method", cmd.Method)
	}

	u, err := uc.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	req, err := paymentDomain.NewPaymentRequest(cmd.UserID, cmd.Amount, method)
	if err != nil {
		return nil, errors.NewValidationError("invalid payment request", err.Error())
	}

	if !u.CanUsePaymentMethod(method.Bit()) {
		return nil, uc.denyMethod(ctx, req, u, method)
	}

	strategy, err := uc.registry.Get(method)
	if err != nil {
		return nil, errors.NewInternalError("payment method unavailable", err.Error())
	}

	if err := uc.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	result, err := strategy.Initiate(ctx, req, u)
	if err != nil {
		if ferr := req.MarkFailed(err.Error()); ferr == nil {
			if uerr := uc.requests.Update(ctx, req); uerr != nil {
				uc.logger.Errorw("failed to persist failed payment request",
					"request_id", req.ID(), "error", uerr)
			}
		}
		uc.logger.Warnw("payment strategy failed",
			"request_id", req.ID(), "method", method, "error", err)
		return nil, err
	}

	if result.Submitted {
		if err := req.MarkSubmittedByGateway(); err != nil {
			return nil, errors.NewInternalError("failed to advance payment request", err.Error())
		}
	}
	if err := uc.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	uc.logger.Infow("payment request created",
		"request_id", req.ID(), "user_id", cmd.UserID,
		"method", method, "amount", cmd.Amount, "status", req.Status())

	return &CreatePaymentRequestResult{
		RequestID:  req.ID(),
		TrackingID: req.TrackingID(),
		Status:     string(req.Status()),
		PaymentURL: result.PaymentURL,
		Card:       result.Card,
	}, nil
}

// denyMethod records the attempt for audit and reports forbidden.
func (uc *CreatePaymentRequestUseCase) denyMethod(ctx context.Context, req *paymentDomain.PaymentRequest, u *userDomain.User, method paymentDomain.Method) error {
	if err := req.MarkFailed("payment method not allowed for this account"); err == nil {
		if cerr := uc.requests.Create(ctx, req); cerr != nil {
			uc.logger.Errorw("failed to record denied payment attempt",
				"user_id", u.ID(), "error", cerr)
		}
	}

	uc.logger.Warnw("payment method denied",
		"user_id", u.ID(), "method", method, "access_mask", u.PaymentAccess())

	if uc.publisher != nil {
		if err := uc.publisher.Publish(paymentDomain.NewMethodDeniedEvent(u.ID(), method)); err != nil {
			uc.logger.Warnw("failed to publish method denied event",
				"user_id", u.ID(), "error", err)
		}
	}

	return errors.NewForbiddenError("payment method not allowed for this account")
}
