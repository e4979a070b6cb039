package payment

import (
	"context"

	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
)

// CardToCardStrategy picks the active destination card and shows it to the
// user. The request stays pending until the user uploads a transfer receipt.
type CardToCardStrategy struct {
	bankAccounts paymentDomain.BankAccountRepository
}

func NewCardToCardStrategy(bankAccounts paymentDomain.BankAccountRepository) *CardToCardStrategy {
	return &CardToCardStrategy{bankAccounts: bankAccounts}
}

func (s *CardToCardStrategy) Initiate(ctx context.Context, req *paymentDomain.PaymentRequest, _ *userDomain.User) (*StrategyResult, error) {
	account, err := s.bankAccounts.GetActive(ctx)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewValidationError("card payments are temporarily unavailable",
				"no active destination account")
		}
		return nil, err
	}

	req.AttachBankAccount(account.ID())

	return &StrategyResult{
		Card: &CardDisplay{
			CardNumber: account.CardNumber(),
			HolderName: account.HolderName(),
			BankName:   account.BankName(),
		},
		Submitted: false,
	}, nil
}
