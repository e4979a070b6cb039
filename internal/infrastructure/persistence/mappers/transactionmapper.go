package mappers

import (
	"fmt"

	"github.com/vetiver-net/vetiver/internal/domain/ledger"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
)

// TransactionMapper handles the conversion between domain entities and persistence models
type TransactionMapper struct{}

func NewTransactionMapper() *TransactionMapper {
	return &TransactionMapper{}
}

func (m *TransactionMapper) ToEntity(model *models.TransactionModel) (*ledger.Transaction, error) {
	if model == nil {
		return nil, nil
	}
	txType, err := ledger.ParseType(model.Type)
	if err != nil {
		return nil, fmt.Errorf("corrupt type for transaction %d: %w", model.ID, err)
	}
	reason, err := ledger.ParseReason(model.Reason)
	if err != nil {
		return nil, fmt.Errorf("corrupt reason for transaction %d: %w", model.ID, err)
	}
	return ledger.ReconstructTransaction(
		model.ID,
		model.UserID,
		model.Amount,
		txType,
		reason,
		model.BalanceBefore,
		model.BalanceAfter,
		model.Description,
		model.CreatedAt,
	), nil
}

func (m *TransactionMapper) ToModel(entity *ledger.Transaction) *models.TransactionModel {
	if entity == nil {
		return nil
	}
	return &models.TransactionModel{
		ID:            entity.ID(),
		UserID:        entity.UserID(),
		Amount:        entity.Amount(),
		Type:          string(entity.Type()),
		Reason:        string(entity.Reason()),
		BalanceBefore: entity.BalanceBefore(),
		BalanceAfter:  entity.BalanceAfter(),
		Description:   entity.Description(),
		CreatedAt:     entity.CreatedAt(),
	}
}

func (m *TransactionMapper) ToEntities(list []*models.TransactionModel) ([]*ledger.Transaction, error) {
	entities := make([]*ledger.Transaction, 0, len(list))
	for _, item := range list {
		entity, err := m.ToEntity(item)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
