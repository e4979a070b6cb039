// Package payment implements the top-up workflow: request creation through a
// per-method strategy, receipt submission, admin approval or rejection, and
// the gateway webhook.
package payment

import (
	"context"
	"fmt"

	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
)

// CardDisplay is the destination card shown to the user for a card-to-card
// transfer.
type CardDisplay struct {
	CardNumber string `json:"card_number"`
	HolderName string `json:"holder_name"`
	BankName   string `json:"bank_name,omitempty"`
}

// StrategyResult is what a strategy hands back to the workflow. Submitted
// reports whether the strategy already moved the request past pending.
type StrategyResult struct {
	PaymentURL string       `json:"payment_url,omitempty"`
	Card       *CardDisplay `json:"card,omitempty"`
	Submitted  bool         `json:"-"`
}

// Strategy initiates a payment for one method. Implementations mutate the
// request (attach a bank account, record the gateway reference) but never
// persist it; the workflow owns persistence.
type Strategy interface {
	Initiate(ctx context.Context, req *paymentDomain.PaymentRequest, u *userDomain.User) (*StrategyResult, error)
}

// Registry maps payment methods to their strategies.
type Registry struct {
	strategies map[paymentDomain.Method]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[paymentDomain.Method]Strategy)}
}

func (r *Registry) Register(method paymentDomain.Method, s Strategy) {
	r.strategies[method] = s
}

func (r *Registry) Get(method paymentDomain.Method) (Strategy, error) {
	s, ok := r.strategies[method]
	if !ok {
		return nil, fmt.Errorf("no strategy registered for method %s", method)
	}
	return s, nil
}
