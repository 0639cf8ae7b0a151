package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bmcgrane302/properview/internal/config"
	"github.com/bmcgrane302/properview/internal/models"
	"github.com/bmcgrane302/properview/internal/services"
	"github.com/bmcgrane302/properview/internal/utils"
)

// RestPropertyHandler serves the public catalogue and the agent write routes for properties.
type RestPropertyHandler struct {
	cfg            *config.Config
	listingService services.IListingService
	agentService   services.IAgentService
}

// NewRestPropertyHandler creates a new RestPropertyHandler.
func NewRestPropertyHandler(cfg *config.Config, listingService services.IListingService, agentService services.IAgentService) *RestPropertyHandler {
	return &RestPropertyHandler{
		cfg:            cfg,
		listingService: listingService,
		agentService:   agentService,
	}
}

// ListProperties handles GET /api/properties
// A numeric filter that does not parse matches no property.
func (h *RestPropertyHandler) ListProperties(c *gin.Context) {
	var filter models.PropertyFilter
	for _, f := range []struct {
		param string
		dst   **int
	}{
		{"minPrice", &filter.MinPrice},
		{"maxPrice", &filter.MaxPrice},
		{"bedrooms", &filter.Bedrooms},
	} {
		n, ok := utils.ParseQueryInt(c.Query(f.param))
		if !ok {
			c.JSON(http.StatusOK, []models.Property{})
			return
		}
		*f.dst = n
	}
	if location := strings.TrimSpace(c.Query("location")); location != "" {
		filter.Address = &location
	}

	properties, err := h.listingService.BrowseListings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to fetch properties")
		return
	}
	c.JSON(http.StatusOK, properties)
}

// GetProperty handles GET /api/properties/:id
func (h *RestPropertyHandler) GetProperty(c *gin.Context) {
	property, err := h.listingService.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch property")
		return
	}
	c.JSON(http.StatusOK, property)
}

// CreateProperty handles POST /api/properties
func (h *RestPropertyHandler) CreateProperty(c *gin.Context) {
	var input models.PropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	agentID := resolveAgentID(c, input.AgentID, h.cfg.DefaultAgentID)
	property, err := h.agentService.CreateOwned(c.Request.Context(), agentID, input)
	if err != nil {
		respondError(c, err, "Failed to create property")
		return
	}
	c.JSON(http.StatusCreated, property)
}

// UpdateProperty handles PUT /api/properties/:id
func (h *RestPropertyHandler) UpdateProperty(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// agentId in the body is a field to change, not the caller.
	agentID := resolveAgentID(c, "", h.cfg.DefaultAgentID)
	property, err := h.agentService.UpdateOwned(c.Request.Context(), agentID, c.Param("id"), updates)
	if err != nil {
		respondError(c, err, "Failed to update property")
		return
	}
	c.JSON(http.StatusOK, property)
}

// DeleteProperty handles DELETE /api/properties/:id
func (h *RestPropertyHandler) DeleteProperty(c *gin.Context) {
	agentID := resolveAgentID(c, "", h.cfg.DefaultAgentID)
	if err := h.agentService.DeleteOwned(c.Request.Context(), agentID, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete property")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Property deleted successfully"})
}
