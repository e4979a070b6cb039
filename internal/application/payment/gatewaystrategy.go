package payment

import (
	"context"

	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
)

// CreateChargeRequest asks the gateway to open an invoice keyed by our
// tracking id; the webhook later refers back to it.
type CreateChargeRequest struct {
	TrackingID  string
	Amount      int64
	Description string
	CallbackURL string
}

// CreateChargeResponse carries the gateway's hosted payment page and its own
// reference for the charge.
type CreateChargeResponse struct {
	PayURL     string
	GatewayRef string
}

// GatewayClient is the outbound contract of the crypto gateway.
type GatewayClient interface {
	CreateCharge(ctx context.Context, req CreateChargeRequest) (*CreateChargeResponse, error)
}

// GatewayStrategy opens a remote invoice and hands the user the gateway's
// payment URL. The request moves to submitted immediately; settlement arrives
// asynchronously on the webhook.
type GatewayStrategy struct {
	gateway     GatewayClient
	callbackURL string
}

func NewGatewayStrategy(gateway GatewayClient, callbackURL string) *GatewayStrategy {
	return &GatewayStrategy{gateway: gateway, callbackURL: callbackURL}
}

func (s *GatewayStrategy) Initiate(ctx context.Context, req *paymentDomain.PaymentRequest, u *userDomain.User) (*StrategyResult, error) {
	resp, err := s.gateway.CreateCharge(ctx, CreateChargeRequest{
		TrackingID:  req.TrackingID(),
		Amount:      req.Amount(),
		Description: "balance top-up",
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		return nil, err
	}

	req.SetGatewayTransactionID(resp.GatewayRef)
	req.SetMetadata("pay_url", resp.PayURL)

	return &StrategyResult{
		PaymentURL: resp.PayURL,
		Submitted:  true,
	}, nil
}
