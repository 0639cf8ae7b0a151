package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bmcgrane302/properview/internal/config"
	"github.com/bmcgrane302/properview/internal/services"
	"github.com/bmcgrane302/properview/internal/storage"
	"github.com/bmcgrane302/properview/internal/tasks"
)

// RestImageHandler issues photo upload URLs and queues uploaded photos for processing.
type RestImageHandler struct {
	cfg            *config.Config
	listingService services.IListingService
	storage        storage.IS3Storage
	taskClient     tasks.IAsynqClient
}

// NewRestImageHandler creates a new RestImageHandler.
func NewRestImageHandler(cfg *config.Config, listingService services.IListingService, storageService storage.IS3Storage, taskClient tasks.IAsynqClient) *RestImageHandler {
	return &RestImageHandler{
		cfg:            cfg,
		listingService: listingService,
		storage:        storageService,
		taskClient:     taskClient,
	}
}

type uploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type imageConfirmRequest struct {
	Key string `json:"key"`
}

// checkWritable loads the property and, under enforced ownership, rejects other agents.
func (h *RestImageHandler) checkWritable(c *gin.Context) bool {
	property, err := h.listingService.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch property")
		return false
	}
	if h.cfg.EnforceOwnership() && property.AgentID != resolveAgentID(c, "", h.cfg.DefaultAgentID) {
		respondError(c, services.ErrNotOwner, "Failed to fetch property")
		return false
	}
	return true
}

// RequestUploadURL handles POST /api/properties/:id/images/upload-url
func (h *RestImageHandler) RequestUploadURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.ContentType) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contentType is required"})
		return
	}
	if !h.checkWritable(c) {
		return
	}

	url, key, err := h.storage.GeneratePresignedPutURL(c.Request.Context(), c.Param("id"), req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err, "Failed to create upload URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "key": key})
}

// ConfirmUpload handles POST /api/properties/:id/images
func (h *RestImageHandler) ConfirmUpload(c *gin.Context) {
	var req imageConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	propertyID := c.Param("id")
	if !storage.IsUploadKeyFor(req.Key, propertyID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image key"})
		return
	}
	if !h.checkWritable(c) {
		return
	}

	task, err := tasks.NewImageProcessTask(propertyID, req.Key)
	if err != nil {
		respondError(c, err, "Failed to queue image")
		return
	}
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		respondError(c, err, "Failed to queue image")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Image queued for processing", "key": req.Key})
}
