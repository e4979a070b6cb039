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

type PaymentRequestRepository struct {
	db     *gorm.DB
	mapper *mappers.PaymentRequestMapper
	logger logger.Interface
}

func NewPaymentRequestRepository(gdb *gorm.DB, logger logger.Interface) payment.Repository {
	return &PaymentRequestRepository{
		db:     gdb,
		mapper: mappers.NewPaymentRequestMapper(),
		logger: logger,
	}
}

func (r *PaymentRequestRepository) Create(ctx context.Context, req *payment.PaymentRequest) error {
	model, err := r.mapper.ToModel(req)
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}
	req.SetID(model.ID)
	req.SyncVersion()
	return nil
}

func (r *PaymentRequestRepository) GetByID(ctx context.Context, id uint) (*payment.PaymentRequest, error) {
	var model models.PaymentRequestModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("payment request not found")
		}
		return nil, fmt.Errorf("failed to get payment request: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *PaymentRequestRepository) GetByTrackingID(ctx context.Context, trackingID string) (*payment.PaymentRequest, error) {
	var model models.PaymentRequestModel
	if err := db.GetTxFromContext(ctx, r.db).Where("tracking_id = ?", trackingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("payment request not found")
		}
		return nil, fmt.Errorf("failed to get payment request by tracking id: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *PaymentRequestRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*payment.PaymentRequest, error) {
	var list []*models.PaymentRequestModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment requests: %w", err)
	}
	return r.mapper.ToEntities(list)
}

// Update persists the request with an optimistic version check against the
// version the aggregate was loaded with, so any number of domain mutations
// between load and save is one persistence cycle. The admin approval path and
// the gateway webhook can race on the same row; the loser gets a conflict
// instead of silently double-settling.
func (r *PaymentRequestRepository) Update(ctx context.Context, req *payment.PaymentRequest) error {
	model, err := r.mapper.ToModel(req)
	if err != nil {
		return err
	}
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PaymentRequestModel{}).
		Where("id = ? AND version = ?", model.ID, req.LoadedVersion()).
		Updates(map[string]interface{}{
			"status":                 model.Status,
			"bank_account_id":        model.BankAccountID,
			"gateway_transaction_id": model.GatewayTransactionID,
			"receipt_path":           model.ReceiptPath,
			"thumbnail_path":         model.ThumbnailPath,
			"reject_description":     model.RejectDescription,
			"metadata":               model.Metadata,
			"version":                model.Version,
			"updated_at":             model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewConflictError("payment request was modified concurrently")
	}
	req.SyncVersion()
	return nil
}
