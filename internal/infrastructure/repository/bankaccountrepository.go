package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vetiver-net/vetiver/internal/domain/payment"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/mappers"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
	"github.com/vetiver-net/vetiver/internal/shared/db"
	apperrors "github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

type BankAccountRepository struct {
	db     *gorm.DB
	mapper *mappers.BankAccountMapper
	logger logger.Interface
}

func NewBankAccountRepository(gdb *gorm.DB, logger logger.Interface) payment.BankAccountRepository {
	return &BankAccountRepository{
		db:     gdb,
		mapper: mappers.NewBankAccountMapper(),
		logger: logger,
	}
}

// GetActive returns the current destination card. With several active rows the
// newest wins.
func (r *BankAccountRepository) GetActive(ctx context.Context) (*payment.BankAccount, error) {
	var model models.BankAccountModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("active = ?", true).
		Order("id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("no active bank account")
		}
		return nil, fmt.Errorf("failed to get active bank account: %w", err)
	}
	return r.mapper.ToEntity(&model), nil
}

func (r *BankAccountRepository) GetByID(ctx context.Context, id uint) (*payment.BankAccount, error) {
	var model models.BankAccountModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("bank account not found")
		}
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return r.mapper.ToEntity(&model), nil
}
