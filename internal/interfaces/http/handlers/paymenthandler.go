package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	paymentApp "github.com/vetiver-net/vetiver/internal/application/payment"
	"github.com/vetiver-net/vetiver/internal/interfaces/http/middleware"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
	"github.com/vetiver-net/vetiver/internal/shared/utils"
)

// PaymentHandler exposes the top-up workflow: request creation, receipt
// upload, admin verdicts and the gateway callback.
type PaymentHandler struct {
	createUC   *paymentApp.CreatePaymentRequestUseCase
	receiptUC  *paymentApp.SubmitReceiptUseCase
	approveUC  *paymentApp.ApprovePaymentUseCase
	rejectUC   *paymentApp.RejectPaymentUseCase
	callbackUC *paymentApp.HandleGatewayCallbackUseCase
	getUC      *paymentApp.GetPaymentRequestUseCase
	logger     logger.Interface
}

func NewPaymentHandler(
	createUC *paymentApp.CreatePaymentRequestUseCase,
	receiptUC *paymentApp.SubmitReceiptUseCase,
	approveUC *paymentApp.ApprovePaymentUseCase,
	rejectUC *paymentApp.RejectPaymentUseCase,
	callbackUC *paymentApp.HandleGatewayCallbackUseCase,
	getUC *paymentApp.GetPaymentRequestUseCase,
	logger logger.Interface,
) *PaymentHandler {
	return &PaymentHandler{
		createUC:   createUC,
		receiptUC:  receiptUC,
		approveUC:  approveUC,
		rejectUC:   rejectUC,
		callbackUC: callbackUC,
		getUC:      getUC,
		logger:     logger,
	}
}

type createPaymentRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Method string `json:"method" binding:"required,oneof=card_to_card gateway_x"`
}

func (h *PaymentHandler) Create(c *gin.Context) {
	userID, exists := middleware.UserIDFromContext(c)
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := h.createUC.Execute(c.Request.Context(), paymentApp.CreatePaymentRequestCommand{
		UserID: userID,
		Amount: req.Amount,
		Method: req.Method,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "payment request created")
}

// Accept receives the multipart transfer receipt for a card-to-card request.
func (h *PaymentHandler) Accept(c *gin.Context) {
	userID, requestID, ok := h.subject(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "receipt file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read receipt file")
		return
	}
	defer file.Close()

	err = h.receiptUC.Execute(c.Request.Context(), paymentApp.SubmitReceiptCommand{
		RequestID: requestID,
		UserID:    userID,
		File:      file,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "receipt submitted", nil)
}

func (h *PaymentHandler) Approve(c *gin.Context) {
	adminID, requestID, ok := h.subject(c)
	if !ok {
		return
	}

	err := h.approveUC.Execute(c.Request.Context(), paymentApp.ApprovePaymentCommand{
		RequestID: requestID,
		AdminID:   adminID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "payment approved", nil)
}

type rejectPaymentRequest struct {
	Description string `json:"description" binding:"required"`
}

func (h *PaymentHandler) Reject(c *gin.Context) {
	adminID, requestID, ok := h.subject(c)
	if !ok {
		return
	}

	var req rejectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "rejection description is required")
		return
	}

	err := h.rejectUC.Execute(c.Request.Context(), paymentApp.RejectPaymentCommand{
		RequestID:   requestID,
		AdminID:     adminID,
		Description: req.Description,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "payment rejected", nil)
}

type ipnRequest struct {
	Status               string `json:"status" binding:"required"`
	GatewayTransactionID string `json:"transaction_id"`
}

// IPN is the anonymous gateway callback. The request is identified by the
// tracking id in the query string; replays and out-of-order deliveries are
// absorbed by the use case.
func (h *PaymentHandler) IPN(c *gin.Context) {
	trackingID := c.Query("request")
	if trackingID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "missing request parameter")
		return
	}

	var req ipnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid callback payload")
		return
	}

	err := h.callbackUC.Execute(c.Request.Context(), paymentApp.GatewayCallbackCommand{
		TrackingID:           trackingID,
		Success:              req.Status == "paid",
		GatewayTransactionID: req.GatewayTransactionID,
	})
	if err != nil {
		h.logger.Warnw("gateway callback failed",
			"tracking_id", trackingID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "callback processed", nil)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	userID, requestID, ok := h.subject(c)
	if !ok {
		return
	}

	dto, err := h.getUC.Execute(c.Request.Context(), requestID, userID, middleware.IsAdmin(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto)
}

func (h *PaymentHandler) List(c *gin.Context) {
	userID, exists := middleware.UserIDFromContext(c)
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	dtos, err := h.getUC.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dtos)
}

func (h *PaymentHandler) subject(c *gin.Context) (userID, requestID uint, ok bool) {
	userID, exists := middleware.UserIDFromContext(c)
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return 0, 0, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid payment request id")
		return 0, 0, false
	}

	return userID, uint(id), true
}
