package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vetiver-net/vetiver/internal/domain/ledger"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/mappers"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
	"github.com/vetiver-net/vetiver/internal/shared/db"
	apperrors "github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// TransactionRepository is append-only: no update or delete methods exist and
// none may be added. The ledger history is the audit trail.
type TransactionRepository struct {
	db     *gorm.DB
	mapper *mappers.TransactionMapper
	logger logger.Interface
}

func NewTransactionRepository(gdb *gorm.DB, logger logger.Interface) ledger.Repository {
	return &TransactionRepository{
		db:     gdb,
		mapper: mappers.NewTransactionMapper(),
		logger: logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	model := r.mapper.ToModel(tx)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	tx.SetID(model.ID)
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*ledger.Transaction, error) {
	var model models.TransactionModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("transaction not found")
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*ledger.Transaction, error) {
	var list []*models.TransactionModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return r.mapper.ToEntities(list)
}
