// Package ledger implements the balance ledger service. Every balance change
// goes through CreateTransaction; nothing else writes user balances.
package ledger

import (
	"context"
	"fmt"

	ledgerDomain "github.com/vetiver-net/vetiver/internal/domain/ledger"
	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// TxManager runs a function inside a database transaction. The transactional
// handle travels in the context; repositories pick it up transparently.
type TxManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CreateTransactionCommand is the input for posting a ledger entry.
type CreateTransactionCommand struct {
	UserID      uint
	Amount      int64
	Type        ledgerDomain.Type
	Reason      ledgerDomain.Reason
	Description string
}

// Service appends ledger entries and applies the matching balance delta in a
// single database transaction: append first, then apply. The entry's
// balanceAfter therefore always equals the stored balance at commit time.
type Service struct {
	users        userDomain.Repository
	transactions ledgerDomain.Repository
	txManager    TxManager
	publisher    events.EventPublisher
	logger       logger.Interface
}

func NewService(
	users userDomain.Repository,
	transactions ledgerDomain.Repository,
	txManager TxManager,
	publisher events.EventPublisher,
	logger logger.Interface,
) *Service {
	return &Service{
		users:        users,
		transactions: transactions,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateTransaction posts one entry. Debits that would push the balance
// negative are rejected unless the reason is service_usage: usage accrued
// before suspension must still be charged, while manual debits may not
// overdraw an account.
func (s *Service) CreateTransaction(ctx context.Context, cmd CreateTransactionCommand) (*ledgerDomain.Transaction, error) {
	if cmd.Amount <= 0 {
		return nil, errors.NewValidationError("amount must be positive")
	}

	var created *ledgerDomain.Transaction

	err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		u, err := s.users.GetByID(txCtx, cmd.UserID)
		if err != nil {
			return err
		}

		if cmd.Type == ledgerDomain.TypeDebit &&
			cmd.Reason != ledgerDomain.ReasonServiceUsage &&
			u.Balance()-cmd.Amount < 0 {
			return errors.NewValidationError("insufficient balance",
				fmt.Sprintf("balance %d, requested debit %d", u.Balance(), cmd.Amount))
		}

		tx, err := ledgerDomain.NewTransaction(cmd.UserID, cmd.Amount, cmd.Type, cmd.Reason, u.Balance(), cmd.Description)
		if err != nil {
			return errors.NewValidationError("invalid transaction", err.Error())
		}

		if err := s.transactions.Create(txCtx, tx); err != nil {
			return err
		}

		if err := s.users.UpdateBalance(txCtx, cmd.UserID, tx.SignedAmount()); err != nil {
			return err
		}

		created = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("ledger entry committed",
		"user_id", cmd.UserID,
		"transaction_id", created.ID(),
		"type", created.Type(),
		"reason", created.Reason(),
		"amount", created.Amount(),
		"balance_after", created.BalanceAfter(),
	)

	if s.publisher != nil {
		if err := s.publisher.Publish(ledgerDomain.NewBalanceChangedEvent(created)); err != nil {
			s.logger.Warnw("failed to publish balance changed event",
				"user_id", cmd.UserID, "error", err)
		}
	}

	return created, nil
}

// ListTransactions returns a user's ledger history, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]*ledgerDomain.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.transactions.ListByUserID(ctx, userID, limit, offset)
}
