package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bmcgrane302/properview/internal/config"
	"github.com/bmcgrane302/properview/internal/services"
)

// RestAgentHandler serves the agent dashboard routes.
type RestAgentHandler struct {
	cfg          *config.Config
	agentService services.IAgentService
}

// NewRestAgentHandler creates a new RestAgentHandler.
func NewRestAgentHandler(cfg *config.Config, agentService services.IAgentService) *RestAgentHandler {
	return &RestAgentHandler{cfg: cfg, agentService: agentService}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/agent/login
func (h *RestAgentHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session, err := h.agentService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, session)
}

// ListProperties handles GET /api/agent/properties
func (h *RestAgentHandler) ListProperties(c *gin.Context) {
	agentID := resolveAgentID(c, "", h.cfg.DefaultAgentID)
	properties, err := h.agentService.ListOwnedProperties(c.Request.Context(), agentID)
	if err != nil {
		respondError(c, err, "Failed to fetch agent properties")
		return
	}
	c.JSON(http.StatusOK, properties)
}
