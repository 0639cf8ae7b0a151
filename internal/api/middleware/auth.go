package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bmcgrane302/properview/internal/auth"
)

// ContextKeyAgentID holds the authenticated agent id in the Gin context.
const ContextKeyAgentID = "agentID"

// AgentAuthMiddleware reads an optional Bearer session token. Requests without an
// Authorization header pass through anonymously; a malformed or invalid token is a 401.
func AgentAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := auth.ValidateJWT(parts[1], jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextKeyAgentID, claims.AgentID)
		c.Next()
	}
}

// AuthenticatedAgentID returns the agent id set by AgentAuthMiddleware, if any.
func AuthenticatedAgentID(c *gin.Context) (string, bool) {
	agentID := c.GetString(ContextKeyAgentID)
	return agentID, agentID != ""
}
