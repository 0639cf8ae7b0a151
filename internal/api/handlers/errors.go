package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bmcgrane302/properview/internal/api/middleware"
	"github.com/bmcgrane302/properview/internal/auth"
	"github.com/bmcgrane302/properview/internal/services"
	"github.com/bmcgrane302/properview/internal/storage"
)

// respondError maps service errors onto status codes. Anything unrecognised is a 500
// carrying fallback; the cause is attached to the context and logged, never returned.
func respondError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)

	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.Is(err, services.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Property belongs to another agent"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, storage.ErrUnsupportedContentType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image type"})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// resolveAgentID picks the acting agent: a verified session token, then the agentId
// query parameter, then fromBody, then the configured default.
func resolveAgentID(c *gin.Context, fromBody, defaultAgentID string) string {
	if agentID, ok := middleware.AuthenticatedAgentID(c); ok {
		return agentID
	}
	if agentID := c.Query("agentId"); agentID != "" {
		return agentID
	}
	if fromBody != "" {
		return fromBody
	}
	return defaultAgentID
}
