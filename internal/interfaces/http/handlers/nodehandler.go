package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	nodeApp "github.com/vetiver-net/vetiver/internal/application/node"
	"github.com/vetiver-net/vetiver/internal/application/provisioning"
	"github.com/vetiver-net/vetiver/internal/interfaces/http/middleware"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
	"github.com/vetiver-net/vetiver/internal/shared/utils"
)

type NodeHandler struct {
	initiateUC *provisioning.InitiateNodeUseCase
	createUC   *nodeApp.CreateNodeUseCase
	listUC     *nodeApp.ListNodesUseCase
	logger     logger.Interface
}

func NewNodeHandler(
	initiateUC *provisioning.InitiateNodeUseCase,
	createUC *nodeApp.CreateNodeUseCase,
	listUC *nodeApp.ListNodesUseCase,
	logger logger.Interface,
) *NodeHandler {
	return &NodeHandler{
		initiateUC: initiateUC,
		createUC:   createUC,
		listUC:     listUC,
		logger:     logger,
	}
}

type initiateNodeRequest struct {
	NodeID  uint `json:"node_id" binding:"required"`
	PanelID uint `json:"panel_id" binding:"required"`
}

// InitiateNode provisions a container for the user's panel on the chosen node.
func (h *NodeHandler) InitiateNode(c *gin.Context) {
	userID, exists := middleware.UserIDFromContext(c)
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req initiateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := h.initiateUC.Execute(c.Request.Context(), provisioning.InitiateNodeCommand{
		UserID:  userID,
		NodeID:  req.NodeID,
		PanelID: req.PanelID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "instance provisioned")
}

type createNodeRequest struct {
	Name      string `json:"name" binding:"required"`
	Host      string `json:"host" binding:"required"`
	AgentPort int    `json:"agent_port" binding:"required"`
	Price     int64  `json:"price" binding:"required,gt=0"`
	Capacity  int    `json:"capacity" binding:"required,gt=0"`
}

func (h *NodeHandler) Create(c *gin.Context) {
	var req createNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := h.createUC.Execute(c.Request.Context(), nodeApp.CreateNodeCommand{
		Name:      req.Name,
		Host:      req.Host,
		AgentPort: req.AgentPort,
		Price:     req.Price,
		Capacity:  req.Capacity,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "node created")
}

func (h *NodeHandler) List(c *gin.Context) {
	dtos, err := h.listUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dtos)
}
