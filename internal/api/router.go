package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bmcgrane302/properview/internal/api/handlers"
	"github.com/bmcgrane302/properview/internal/api/middleware"
	"github.com/bmcgrane302/properview/internal/auth"
	"github.com/bmcgrane302/properview/internal/captcha"
	"github.com/bmcgrane302/properview/internal/config"
	"github.com/bmcgrane302/properview/internal/email"
	"github.com/bmcgrane302/properview/internal/services"
	"github.com/bmcgrane302/properview/internal/storage"
	"github.com/bmcgrane302/properview/internal/tasks"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(
	cfg *config.Config,
	db *mongo.Database,
	taskClient tasks.IAsynqClient,
	storageService storage.IS3Storage,
	credentials auth.ICredentialStore,
	rateLimiter *middleware.RateLimiterMiddleware,
) *gin.Engine {
	propertyService := services.NewPropertyService(db, cfg)
	inquiryService := services.NewInquiryService(db, cfg, propertyService, tasks.NewInquiryNotifier(taskClient))
	listingService := services.NewListingService(propertyService)
	agentService := services.NewAgentService(cfg, propertyService, inquiryService, credentials)

	captchaVerifier := captcha.NewTurnstileVerifier(cfg)

	r := gin.Default()
	r.Use(middleware.CORSMiddleware(cfg.CorsAllowedOrigin))

	propertyHandler := handlers.NewRestPropertyHandler(cfg, listingService, agentService)
	agentHandler := handlers.NewRestAgentHandler(cfg, agentService)
	inquiryHandler := handlers.NewRestInquiryHandler(cfg, inquiryService, agentService)
	imageHandler := handlers.NewRestImageHandler(cfg, listingService, storageService, taskClient)

	// Public routes ignore the Authorization header, so a stale session never blocks browsing.
	v1 := r.Group("/api")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		v1.GET("/properties", propertyHandler.ListProperties)
		v1.GET("/properties/:id", propertyHandler.GetProperty)

		v1.POST("/agent/login", agentHandler.Login)

		// Submission is unauthenticated, so it is rate limited.
		v1.POST("/inquiries",
			middleware.CaptchaMiddleware(cfg, captchaVerifier),
			rateLimiter.Limit(),
			inquiryHandler.CreateInquiry,
		)
	}

	// Agent routes: a bearer token, when present, must be valid.
	agent := v1.Group("")
	agent.Use(middleware.AgentAuthMiddleware(cfg.JwtSecret))
	{
		agent.POST("/properties", propertyHandler.CreateProperty)
		agent.PUT("/properties/:id", propertyHandler.UpdateProperty)
		agent.DELETE("/properties/:id", propertyHandler.DeleteProperty)

		// Photos
		agent.POST("/properties/:id/images/upload-url", imageHandler.RequestUploadURL)
		agent.POST("/properties/:id/images", imageHandler.ConfirmUpload)

		// Agent dashboard
		agent.GET("/agent/properties", agentHandler.ListProperties)
		agent.GET("/inquiries", inquiryHandler.ListInquiries)
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				fmt.Println("Shutdown signal sent successfully.")
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		case "getTestEmail":
			var args []string // [kind, email]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
				return
			}
			if rdb == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Redis not configured"})
				return
			}
			redisKey := email.MockEmailKey(args[1], args[0])

			var emailJsonData string
			var getErr error
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			for i := 0; i < 10; i++ { // ~2 seconds
				emailJsonData, getErr = rdb.Get(ctx, redisKey).Result()
				if getErr == nil {
					found = true
					rdb.Del(ctx, redisKey)
					break
				}
				if getErr != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, getErr)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
				time.Sleep(200 * time.Millisecond)
			}

			if !found {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
				return
			}

			var emailData email.StoredEmail
			if err := json.Unmarshal([]byte(emailJsonData), &emailData); err != nil {
				log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
