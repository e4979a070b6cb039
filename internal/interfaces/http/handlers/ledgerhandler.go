package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	ledgerApp "github.com/vetiver-net/vetiver/internal/application/ledger"
	ledgerDomain "github.com/vetiver-net/vetiver/internal/domain/ledger"
	"github.com/vetiver-net/vetiver/internal/interfaces/http/middleware"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
	"github.com/vetiver-net/vetiver/internal/shared/utils"
)

type LedgerHandler struct {
	service *ledgerApp.Service
	logger  logger.Interface
}

func NewLedgerHandler(service *ledgerApp.Service, logger logger.Interface) *LedgerHandler {
	return &LedgerHandler{service: service, logger: logger}
}

type transactionResponse struct {
	ID            uint      `json:"id"`
	Amount        int64     `json:"amount"`
	Type          string    `json:"type"`
	Reason        string    `json:"reason"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListTransactions returns the authenticated user's ledger history.
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	userID, exists := middleware.UserIDFromContext(c)
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.service.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, transactionResponse{
			ID:            tx.ID(),
			Amount:        tx.Amount(),
			Type:          string(tx.Type()),
			Reason:        string(tx.Reason()),
			BalanceBefore: tx.BalanceBefore(),
			BalanceAfter:  tx.BalanceAfter(),
			Description:   tx.Description(),
			CreatedAt:     tx.CreatedAt(),
		})
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

type adjustBalanceRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Type        string `json:"type" binding:"required,oneof=credit debit"`
	Description string `json:"description" binding:"required"`
}

// AdjustBalance posts a manual correction. Admin only; manual debits still
// respect the balance floor.
func (h *LedgerHandler) AdjustBalance(c *gin.Context) {
	var req adjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	txType, err := ledgerDomain.ParseType(req.Type)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid transaction type")
		return
	}

	reason := ledgerDomain.ReasonManualCredit
	if txType == ledgerDomain.TypeDebit {
		reason = ledgerDomain.ReasonManualDebit
	}

	tx, err := h.service.CreateTransaction(c.Request.Context(), ledgerApp.CreateTransactionCommand{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Type:        txType,
		Reason:      reason,
		Description: req.Description,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "balance adjusted", transactionResponse{
		ID:            tx.ID(),
		Amount:        tx.Amount(),
		Type:          string(tx.Type()),
		Reason:        string(tx.Reason()),
		BalanceBefore: tx.BalanceBefore(),
		BalanceAfter:  tx.BalanceAfter(),
		Description:   tx.Description(),
		CreatedAt:     tx.CreatedAt(),
	})
}
