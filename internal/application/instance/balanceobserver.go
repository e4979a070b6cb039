package instance

import (
	"context"
	"fmt"
	"time"

	ledgerDomain "github.com/vetiver-net/vetiver/internal/domain/ledger"
	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// solvencyCheckTimeout bounds one solvency pass triggered by a single
// balance change.
const solvencyCheckTimeout = 2 * time.Minute

// BalanceObserver reacts to committed ledger entries by re-evaluating the
// user's solvency. A debit that drains the balance suspends the user's
// running instances; a credit that restores it reinstates the suspended
// ones.
type BalanceObserver struct {
	solvency *SolvencyCheckUseCase
	logger   logger.Interface
}

func NewBalanceObserver(solvency *SolvencyCheckUseCase, logger logger.Interface) *BalanceObserver {
	return &BalanceObserver{solvency: solvency, logger: logger}
}

// Handle runs the solvency check for the user behind the balance change.
func (o *BalanceObserver) Handle(event events.DomainEvent) error {
	changed, ok := event.(*ledgerDomain.BalanceChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.GetEventType())
	}

	ctx, cancel := context.WithTimeout(context.Background(), solvencyCheckTimeout)
	defer cancel()

	o.logger.Debugw("balance changed, running solvency check",
		"user_id", changed.UserID,
		"balance_after", changed.BalanceAfter,
		"reason", changed.Reason)

	return o.solvency.Execute(ctx, changed.UserID)
}

func (o *BalanceObserver) CanHandle(eventType string) bool {
	return eventType == ledgerDomain.EventTypeBalanceChanged
}
