package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vetiver-net/vetiver/internal/shared/biztime"
)

// PaymentRequest is one attempt to add funds to a user's balance. Requests
// are never hard-deleted; denied and rejected attempts stay for audit.
type PaymentRequest struct {
	id     uint
	userID uint
	amount int64
	method Method
	status Status

	// trackingID is our identifier handed to the gateway; the webhook is
	// keyed by it.
	trackingID string

	bankAccountID        *uint
	gatewayTransactionID *string
	receiptPath          *string
	thumbnailPath        *string
	rejectDescription    *string

	metadata map[string]interface{}

	version int
	// loadedVersion is the version the row carried when the aggregate was
	// loaded or last persisted; the repository's optimistic check compares
	// against it, so any number of mutations between saves is fine.
	loadedVersion int
	createdAt     time.Time
	updatedAt     time.Time
}

func NewPaymentRequest(userID uint, amount int64, method Method) (*PaymentRequest, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	now := biztime.NowUTC()
	return &PaymentRequest{
		userID:     userID,
		amount:     amount,
		method:     method,
		status:     StatusPending,
		trackingID: uuid.NewString(),
		metadata:   make(map[string]interface{}),
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func (r *PaymentRequest) touch() {
	r.updatedAt = biztime.NowUTC()
	r.version++
}

// AttachBankAccount records the card-to-card destination chosen by the
// strategy.
func (r *PaymentRequest) AttachBankAccount(bankAccountID uint) {
	r.bankAccountID = &bankAccountID
	r.touch()
}

// MarkSubmitted flips pending → submitted after a receipt upload. Only valid
// once; re-submission is rejected.
func (r *PaymentRequest) MarkSubmitted(receiptPath, thumbnailPath string) error {
	if r.status != StatusPending {
		return fmt.Errorf("cannot submit receipt for request with status %s", r.status)
	}
	r.status = StatusSubmitted
	r.receiptPath = &receiptPath
	r.thumbnailPath = &thumbnailPath
	r.touch()
	return nil
}

// MarkSubmittedByGateway flips pending → submitted when the gateway strategy
// already confirms submission.
func (r *PaymentRequest) MarkSubmittedByGateway() error {
	if r.status != StatusPending {
		return fmt.Errorf("cannot mark request submitted with status %s", r.status)
	}
	r.status = StatusSubmitted
	r.touch()
	return nil
}

// MarkCompleted flips submitted → completed. The ledger credit must already
// have been posted; approval never completes a request the ledger rejected.
func (r *PaymentRequest) MarkCompleted() error {
	if r.status != StatusSubmitted {
		return fmt.Errorf("cannot complete request with status %s", r.status)
	}
	r.status = StatusCompleted
	r.touch()
	return nil
}

// MarkRejected flips submitted → failed with a mandatory reason.
func (r *PaymentRequest) MarkRejected(description string) error {
	if r.status != StatusSubmitted {
		return fmt.Errorf("cannot reject request with status %s", r.status)
	}
	if description == "" {
		return fmt.Errorf("rejection description is required")
	}
	r.status = StatusFailed
	r.rejectDescription = &description
	r.touch()
	return nil
}

// MarkFailed flips pending → failed directly (method denied, strategy
// failure).
func (r *PaymentRequest) MarkFailed(description string) error {
	if r.status.IsFinal() {
		return fmt.Errorf("cannot fail request with final status %s", r.status)
	}
	r.status = StatusFailed
	r.rejectDescription = &description
	r.touch()
	return nil
}

// SetGatewayTransactionID records the gateway's reference for the charge.
func (r *PaymentRequest) SetGatewayTransactionID(id string) {
	r.gatewayTransactionID = &id
	r.touch()
}

// SetMetadata sets a metadata key-value pair
func (r *PaymentRequest) SetMetadata(key string, value interface{}) {
	if r.metadata == nil {
		r.metadata = make(map[string]interface{})
	}
	r.metadata[key] = value
	r.updatedAt = biztime.NowUTC()
}

func (r *PaymentRequest) ID() uint                       { return r.id }
func (r *PaymentRequest) UserID() uint                   { return r.userID }
func (r *PaymentRequest) Amount() int64                  { return r.amount }
func (r *PaymentRequest) Method() Method                 { return r.method }
func (r *PaymentRequest) Status() Status                 { return r.status }
func (r *PaymentRequest) TrackingID() string             { return r.trackingID }
func (r *PaymentRequest) BankAccountID() *uint           { return r.bankAccountID }
func (r *PaymentRequest) GatewayTransactionID() *string  { return r.gatewayTransactionID }
func (r *PaymentRequest) ReceiptPath() *string           { return r.receiptPath }
func (r *PaymentRequest) ThumbnailPath() *string         { return r.thumbnailPath }
func (r *PaymentRequest) RejectDescription() *string     { return r.rejectDescription }
func (r *PaymentRequest) Metadata() map[string]interface{} { return r.metadata }
func (r *PaymentRequest) Version() int                   { return r.version }
func (r *PaymentRequest) LoadedVersion() int             { return r.loadedVersion }
func (r *PaymentRequest) CreatedAt() time.Time           { return r.createdAt }
func (r *PaymentRequest) UpdatedAt() time.Time           { return r.updatedAt }

// SetID sets the request ID after persistence (used by repository after Create)
func (r *PaymentRequest) SetID(id uint) {
	r.id = id
}

// SyncVersion marks the current version as persisted (used by repository
// after Create/Update).
func (r *PaymentRequest) SyncVersion() {
	r.loadedVersion = r.version
}

func ReconstructPaymentRequest(
	id uint,
	userID uint,
	amount int64,
	method Method,
	status Status,
	trackingID string,
	bankAccountID *uint,
	gatewayTransactionID, receiptPath, thumbnailPath, rejectDescription *string,
	metadata map[string]interface{},
	version int,
	createdAt, updatedAt time.Time,
) *PaymentRequest {
	return &PaymentRequest{
		id:                   id,
		userID:               userID,
		amount:               amount,
		method:               method,
		status:               status,
		trackingID:           trackingID,
		bankAccountID:        bankAccountID,
		gatewayTransactionID: gatewayTransactionID,
		receiptPath:          receiptPath,
		thumbnailPath:        thumbnailPath,
		rejectDescription:    rejectDescription,
		metadata:             metadata,
		version:              version,
		loadedVersion:        version,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}
}
