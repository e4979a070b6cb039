package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	panelApp "github.com/vetiver-net/vetiver/internal/application/panel"
	"github.com/vetiver-net/vetiver/internal/interfaces/http/middleware"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
	"github.com/vetiver-net/vetiver/internal/shared/utils"
)

type PanelHandler struct {
	registerUC *panelApp.RegisterPanelUseCase
	deleteUC   *panelApp.DeletePanelUseCase
	logger     logger.Interface
}

func NewPanelHandler(
	registerUC *panelApp.RegisterPanelUseCase,
	deleteUC *panelApp.DeletePanelUseCase,
	logger logger.Interface,
) *PanelHandler {
	return &PanelHandler{
		registerUC: registerUC,
		deleteUC:   deleteUC,
		logger:     logger,
	}
}

type registerPanelRequest struct {
	URL      string `json:"url" binding:"required,url"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *PanelHandler) Register(c *gin.Context) {
	userID, exists := middleware.UserIDFromContext(c)
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req registerPanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := h.registerUC.Execute(c.Request.Context(), panelApp.RegisterPanelCommand{
		UserID:   userID,
		URL:      req.URL,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "panel registered successfully")
}

func (h *PanelHandler) Delete(c *gin.Context) {
	userID, exists := middleware.UserIDFromContext(c)
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid panel id")
		return
	}

	err = h.deleteUC.Execute(c.Request.Context(), panelApp.DeletePanelCommand{
		PanelID: uint(id),
		UserID:  userID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "panel deleted", nil)
}
