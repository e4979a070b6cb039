package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/vetiver-net/vetiver/internal/domain/payment"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
)

// PaymentRequestMapper handles the conversion between domain entities and persistence models
type PaymentRequestMapper struct{}

func NewPaymentRequestMapper() *PaymentRequestMapper {
	return &PaymentRequestMapper{}
}

func (m *PaymentRequestMapper) ToEntity(model *models.PaymentRequestModel) (*payment.PaymentRequest, error) {
	if model == nil {
		return nil, nil
	}
	method, err := payment.ParseMethod(model.Method)
	if err != nil {
		return nil, fmt.Errorf("corrupt method for payment request %d: %w", model.ID, err)
	}
	status, err := payment.ParseStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("corrupt status for payment request %d: %w", model.ID, err)
	}

	var metadata map[string]interface{}
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("corrupt metadata for payment request %d: %w", model.ID, err)
		}
	}

	return payment.ReconstructPaymentRequest(
		model.ID,
		model.UserID,
		model.Amount,
		method,
		status,
		model.TrackingID,
		model.BankAccountID,
		model.GatewayTransactionID,
		model.ReceiptPath,
		model.ThumbnailPath,
		model.RejectDescription,
		metadata,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

func (m *PaymentRequestMapper) ToModel(entity *payment.PaymentRequest) (*models.PaymentRequestModel, error) {
	if entity == nil {
		return nil, nil
	}

	var metadata datatypes.JSON
	if len(entity.Metadata()) > 0 {
		raw, err := json.Marshal(entity.Metadata())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payment request metadata: %w", err)
		}
		metadata = datatypes.JSON(raw)
	}

	return &models.PaymentRequestModel{
		ID:                   entity.ID(),
		UserID:               entity.UserID(),
		Amount:               entity.Amount(),
		Method:               string(entity.Method()),
		Status:               string(entity.Status()),
		TrackingID:           entity.TrackingID(),
		BankAccountID:        entity.BankAccountID(),
		GatewayTransactionID: entity.GatewayTransactionID(),
		ReceiptPath:          entity.ReceiptPath(),
		ThumbnailPath:        entity.ThumbnailPath(),
		RejectDescription:    entity.RejectDescription(),
		Metadata:             metadata,
		Version:              entity.Version(),
		CreatedAt:            entity.CreatedAt(),
		UpdatedAt:            entity.UpdatedAt(),
	}, nil
}

func (m *PaymentRequestMapper) ToEntities(list []*models.PaymentRequestModel) ([]*payment.PaymentRequest, error) {
	entities := make([]*payment.PaymentRequest, 0, len(list))
	for _, item := range list {
		entity, err := m.ToEntity(item)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// BankAccountMapper handles the conversion between domain entities and persistence models
type BankAccountMapper struct{}

func NewBankAccountMapper() *BankAccountMapper {
	return &BankAccountMapper{}
}

func (m *BankAccountMapper) ToEntity(model *models.BankAccountModel) *payment.BankAccount {
	if model == nil {
		return nil
	}
	return payment.ReconstructBankAccount(
		model.ID,
		model.CardNumber,
		model.HolderName,
		model.BankName,
		model.Active,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *BankAccountMapper) ToModel(entity *payment.BankAccount) *models.BankAccountModel {
	if entity == nil {
		return nil
	}
	return &models.BankAccountModel{
		ID:         entity.ID(),
		CardNumber: entity.CardNumber(),
		HolderName: entity.HolderName(),
		BankName:   entity.BankName(),
		Active:     entity.IsActive(),
		CreatedAt:  entity.CreatedAt(),
	}
}
