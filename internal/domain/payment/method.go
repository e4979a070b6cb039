package payment

import "fmt"

// Method is how the user wants to pay. Each method maps to a bit in the
// user's payment-access mask and to a strategy in the workflow engine.
type Method string

const (
	MethodCardToCard Method = "card_to_card"
	MethodGatewayX   Method = "gateway_x"
)

// ParseMethod validates and converts a raw string into a Method.
func ParseMethod(raw string) (Method, error) {
	switch Method(raw) {
	case MethodCardToCard, MethodGatewayX:
		return Method(raw), nil
	default:
		return "", fmt.Errorf("unknown payment method: %s", raw)
	}
}

// Bit returns the method's position in the user access mask.
func (m Method) Bit() uint8 {
	switch m {
	case MethodCardToCard:
		return 1 << 0
	case MethodGatewayX:
		return 1 << 1
	default:
		return 0
	}
}

// Status is the payment request state. Pending → Submitted → Completed or
// Failed; Pending → Failed directly when the method is denied or the
// strategy fails.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ParseStatus validates and converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusSubmitted, StatusCompleted, StatusFailed:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("unknown payment status: %s", raw)
	}
}

// IsFinal reports whether the status accepts no further transitions. The
// gateway webhook relies on this for idempotence under duplicate delivery.
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusFailed
}
