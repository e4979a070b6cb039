package payment

import (
	"fmt"

	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	"github.com/vetiver-net/vetiver/internal/shared/biztime"
)

const (
	EventTypeMethodDenied     = "payment.method_denied"
	EventTypeRequestCompleted = "payment.request_completed"
	EventTypeRequestRejected  = "payment.request_rejected"
)

// MethodDeniedEvent fires when a user attempts a payment method outside
// their access mask. Alerting subscribes to it.
type MethodDeniedEvent struct {
	events.BaseEvent
	UserID uint   `json:"user_id"`
	Method Method `json:"method"`
}

func NewMethodDeniedEvent(userID uint, method Method) *MethodDeniedEvent {
	return &MethodDeniedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: fmt.Sprintf("%d", userID),
			EventType:   EventTypeMethodDenied,
			OccurredAt:  biztime.NowUTC(),
		},
		UserID: userID,
		Method: method,
	}
}

// RequestCompletedEvent fires after a request reaches completed and the
// ledger credit is committed.
type RequestCompletedEvent struct {
	events.BaseEvent
	RequestID uint  `json:"request_id"`
	UserID    uint  `json:"user_id"`
	Amount    int64 `json:"amount"`
}

func NewRequestCompletedEvent(r *PaymentRequest) *RequestCompletedEvent {
	return &RequestCompletedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: fmt.Sprintf("%d", r.ID()),
			EventType:   EventTypeRequestCompleted,
			OccurredAt:  biztime.NowUTC(),
		},
		RequestID: r.ID(),
		UserID:    r.UserID(),
		Amount:    r.Amount(),
	}
}

// RequestRejectedEvent fires when an admin rejects a submitted request.
type RequestRejectedEvent struct {
	events.BaseEvent
	RequestID uint   `json:"request_id"`
	UserID    uint   `json:"user_id"`
	Reason    string `json:"reason"`
}

func NewRequestRejectedEvent(r *PaymentRequest, reason string) *RequestRejectedEvent {
	return &RequestRejectedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: fmt.Sprintf("%d", r.ID()),
			EventType:   EventTypeRequestRejected,
			OccurredAt:  biztime.NowUTC(),
		},
		RequestID: r.ID(),
		UserID:    r.UserID(),
		Reason:    reason,
	}
}
