package ledger

import (
	"fmt"

	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	"github.com/vetiver-net/vetiver/internal/shared/biztime"
)

const (
	// EventTypeBalanceChanged fires after every committed ledger entry. The
	// solvency check and low-balance alerting subscribe to it.
	EventTypeBalanceChanged = "ledger.balance_changed"
)

// BalanceChangedEvent carries the committed entry and the resulting balance.
type BalanceChangedEvent struct {
	events.BaseEvent
	UserID        uint   `json:"user_id"`
	TransactionID uint   `json:"transaction_id"`
	Type          Type   `json:"type"`
	Reason        Reason `json:"reason"`
	Amount        int64  `json:"amount"`
	BalanceAfter  int64  `json:"balance_after"`
}

func NewBalanceChangedEvent(tx *Transaction) *BalanceChangedEvent {
	return &BalanceChangedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: fmt.Sprintf("%d", tx.UserID()),
			EventType:   EventTypeBalanceChanged,
			OccurredAt:  biztime.NowUTC(),
		},
		UserID:        tx.UserID(),
		TransactionID: tx.ID(),
		Type:          tx.Type(),
		Reason:        tx.Reason(),
		Amount:        tx.Amount(),
		BalanceAfter:  tx.BalanceAfter(),
	}
}
