package payment

import (
	"context"
	"time"

	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
)

// PaymentRequestDTO is the read-model shape for the HTTP layer.
type PaymentRequestDTO struct {
	ID                uint      `json:"id"`
	Amount            int64     `json:"amount"`
	Method            string    `json:"method"`
	Status            string    `json:"status"`
	TrackingID        string    `json:"tracking_id"`
	RejectDescription *string   `json:"reject_description,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// GetPaymentRequestUseCase reads one request or a user's history.
type GetPaymentRequestUseCase struct {
	requests paymentDomain.Repository
}

func NewGetPaymentRequestUseCase(requests paymentDomain.Repository) *GetPaymentRequestUseCase {
	return &GetPaymentRequestUseCase{requests: requests}
}

func (uc *GetPaymentRequestUseCase) Execute(ctx context.Context, requestID, userID uint, isAdmin bool) (*PaymentRequestDTO, error) {
	req, err := uc.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && req.UserID() != userID {
		return nil, errors.NewNotFoundError("payment request not found")
	}
	return toRequestDTO(req), nil
}

func (uc *GetPaymentRequestUseCase) List(ctx context.Context, userID uint, limit, offset int) ([]*PaymentRequestDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.requests.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	dtos := make([]*PaymentRequestDTO, 0, len(list))
	for _, req := range list {
		dtos = append(dtos, toRequestDTO(req))
	}
	return dtos, nil
}

func toRequestDTO(req *paymentDomain.PaymentRequest) *PaymentRequestDTO {
	return &PaymentRequestDTO{
		ID:                req.ID(),
		Amount:            req.Amount(),
		Method:            string(req.Method()),
		Status:            string(req.Status()),
		TrackingID:        req.TrackingID(),
		RejectDescription: req.RejectDescription(),
		CreatedAt:         req.CreatedAt(),
	}
}
