package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bmcgrane302/properview/internal/config"
	"github.com/bmcgrane302/properview/internal/models"
	"github.com/bmcgrane302/properview/internal/services"
)

// RestInquiryHandler serves buyer inquiry submission and the agent inbox.
type RestInquiryHandler struct {
	cfg            *config.Config
	inquiryService services.IInquiryService
	agentService   services.IAgentService
}

// NewRestInquiryHandler creates a new RestInquiryHandler.
func NewRestInquiryHandler(cfg *config.Config, inquiryService services.IInquiryService, agentService services.IAgentService) *RestInquiryHandler {
	return &RestInquiryHandler{
		cfg:            cfg,
		inquiryService: inquiryService,
		agentService:   agentService,
	}
}

// CreateInquiry handles POST /api/inquiries
func (h *RestInquiryHandler) CreateInquiry(c *gin.Context) {
	var input models.InquiryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	inquiry, err := h.inquiryService.CreateInquiry(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to submit inquiry")
		return
	}
	c.JSON(http.StatusCreated, inquiry)
}

// ListInquiries handles GET /api/inquiries
func (h *RestInquiryHandler) ListInquiries(c *gin.Context) {
	agentID := resolveAgentID(c, "", h.cfg.DefaultAgentID)
	inquiries, err := h.agentService.ListInquiries(c.Request.Context(), agentID)
	if err != nil {
		respondError(c, err, "Failed to fetch inquiries")
		return
	}
	c.JSON(http.StatusOK, inquiries)
}
