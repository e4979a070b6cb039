package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vetiver-net/vetiver/internal/application/billing"
	instanceApp "github.com/vetiver-net/vetiver/internal/application/instance"
	"github.com/vetiver-net/vetiver/internal/interfaces/http/middleware"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
	"github.com/vetiver-net/vetiver/internal/shared/utils"
)

// InstanceHandler exposes instance lifecycle operations and usage ingestion.
type InstanceHandler struct {
	engine   *billing.Engine
	pauseUC  *instanceApp.PauseInstanceUseCase
	resumeUC *instanceApp.ResumeInstanceUseCase
	deleteUC *instanceApp.DeleteInstanceUseCase
	getUC    *instanceApp.GetInstanceUseCase
	logger   logger.Interface
}

func NewInstanceHandler(
	engine *billing.Engine,
	pauseUC *instanceApp.PauseInstanceUseCase,
	resumeUC *instanceApp.ResumeInstanceUseCase,
	deleteUC *instanceApp.DeleteInstanceUseCase,
	getUC *instanceApp.GetInstanceUseCase,
	logger logger.Interface,
) *InstanceHandler {
	return &InstanceHandler{
		engine:   engine,
		pauseUC:  pauseUC,
		resumeUC: resumeUC,
		deleteUC: deleteUC,
		getUC:    getUC,
		logger:   logger,
	}
}

type usageReportRequest struct {
	Records []billing.UsageRecord `json:"records" binding:"required"`
}

// Report ingests a usage batch from a node agent. Authenticated by the
// service key middleware, not by a user token.
func (h *InstanceHandler) Report(c *gin.Context) {
	var req usageReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	summary := h.engine.ProcessUsageReport(c.Request.Context(), req.Records)
	utils.SuccessResponse(c, http.StatusOK, "usage report processed", summary)
}

func (h *InstanceHandler) Pause(c *gin.Context) {
	userID, instanceID, ok := h.subject(c)
	if !ok {
		return
	}

	err := h.pauseUC.Execute(c.Request.Context(), instanceApp.PauseInstanceCommand{
		InstanceID: instanceID,
		UserID:     userID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "instance paused", nil)
}

func (h *InstanceHandler) Unpause(c *gin.Context) {
	userID, instanceID, ok := h.subject(c)
	if !ok {
		return
	}

	err := h.resumeUC.Execute(c.Request.Context(), instanceApp.ResumeInstanceCommand{
		InstanceID: instanceID,
		UserID:     userID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "instance resumed", nil)
}

func (h *InstanceHandler) Delete(c *gin.Context) {
	userID, instanceID, ok := h.subject(c)
	if !ok {
		return
	}

	result, err := h.deleteUC.Execute(c.Request.Context(), instanceApp.DeleteInstanceCommand{
		InstanceID: instanceID,
		UserID:     userID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "instance deleted", result)
}

func (h *InstanceHandler) Get(c *gin.Context) {
	userID, instanceID, ok := h.subject(c)
	if !ok {
		return
	}

	dto, err := h.getUC.Execute(c.Request.Context(), instanceID, userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto)
}

func (h *InstanceHandler) List(c *gin.Context) {
	userID, exists := middleware.UserIDFromContext(c)
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	dtos, err := h.getUC.List(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dtos)
}

// subject extracts the authenticated user and the :id path parameter.
func (h *InstanceHandler) subject(c *gin.Context) (userID, instanceID uint, ok bool) {
	userID, exists := middleware.UserIDFromContext(c)
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return 0, 0, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid instance id")
		return 0, 0, false
	}

	return userID, uint(id), true
}
