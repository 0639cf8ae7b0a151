package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bmcgrane302/properview/internal/api"
	"github.com/bmcgrane302/properview/internal/api/middleware"
	"github.com/bmcgrane302/properview/internal/auth"
	"github.com/bmcgrane302/properview/internal/cache"
	"github.com/bmcgrane302/properview/internal/config"
	"github.com/bmcgrane302/properview/internal/db"
	"github.com/bmcgrane302/properview/internal/email"
	"github.com/bmcgrane302/properview/internal/seed"
	"github.com/bmcgrane302/properview/internal/services"
	"github.com/bmcgrane302/properview/internal/storage"
	"github.com/bmcgrane302/properview/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'img' (image processing), 'all' (default), 'seed' (load demo data and exit)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	if cfg.RunMode == "seed" {
		runSeed(mongoDb)
		return
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	s3StorageService, err := storage.NewS3Storage(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3 storage: %v", err)
	}

	credentials, err := auth.NewDemoCredentialStore(auth.DefaultDemoAccounts())
	if err != nil {
		log.Fatalf("Failed to initialize credential store: %v", err)
	}

	// Email
	var primaryEmailSender email.Sender
	if cfg.MockServices {
		log.Println("MOCK_SERVICES enabled: Using Redis email sender.")
		primaryEmailSender = email.NewRedisSender(redisClient)
	} else {
		primaryEmailSender = email.NewSMTPSender(cfg)
	}
	compositeSender := email.NewCompositeEmailSender(primaryEmailSender)
	if cfg.EmailLogFile != "" {
		log.Printf("LOG_EMAILS set to '%s', enabling file email logger.", cfg.EmailLogFile)
		fileSender, err := email.NewFileEmailSender(cfg.EmailLogFile)
		if err != nil {
			log.Printf("WARNING: Failed to initialize file email sender: %v. Proceeding without file logging.", err)
		} else {
			compositeSender.AddSender(fileSender)
		}
	}

	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()

	propertyService := services.NewPropertyService(mongoDb, cfg)
	taskProcessor := tasks.NewTaskProcessor(cfg, compositeSender, s3StorageService, propertyService, credentials)

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	// Service API (always runs)
	serviceRouter := api.SetupServiceRouter(cfg, redisClient, shutdownChan)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: serviceRouter,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		fmt.Printf("Service API listening on :%s\n", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Service API ListenAndServe error: %v", err)
		}
		fmt.Println("Service API server stopped.")
	}()

	// --- Mode-specific servers ---
	var mainApiSrv *http.Server
	var taskServers []*asynq.Server

	fmt.Printf("Starting application in '%s' mode...\n", cfg.RunMode)

	apiMode := func() {
		fmt.Println("Starting main API server...")
		if err := db.EnsureIndexes(context.Background(), mongoDb); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}

		rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
		go rateLimiter.RunCleanup(bgCtx)

		mainApiRouter := api.SetupRouter(cfg, mongoDb, taskClient, s3StorageService, credentials, rateLimiter)
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: mainApiRouter,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("Main API listening on :%s\n", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Main API ListenAndServe error: %v", err)
			}
			fmt.Println("Main API server stopped.")
		}()
	}

	workerMode := func(name string, isImageWorker, isBgWorker bool) {
		fmt.Printf("Starting %s worker...\n", name)
		srv, mux := tasks.SetupServer(redisClient, taskProcessor, isImageWorker, isBgWorker)
		if srv == nil {
			return
		}
		// Start rather than Run: Run waits on OS signals itself, which would miss a
		// shutdown requested through the service API.
		if err := srv.Start(mux); err != nil {
			log.Fatalf("%s task server error: %v", name, err)
		}
		taskServers = append(taskServers, srv)
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		workerMode("background", false, true)
	case "img":
		workerMode("image processing", true, false)
	case "all":
		apiMode()
		workerMode("background", false, true)
		workerMode("image processing", true, false)
	default:
		log.Fatalf("Invalid run mode specified in config: %s.", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)
	case <-shutdownChan:
		fmt.Println("\nShutdown requested via Service API. Shutting down gracefully...")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	fmt.Println("Shutting down Service API server...")
	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Service API server shutdown error: %v", err)
	}

	if mainApiSrv != nil {
		fmt.Println("Shutting down Main API server...")
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("Main API server shutdown error: %v", err)
		}
	}

	for _, srv := range taskServers {
		fmt.Println("Shutting down task server...")
		srv.Shutdown()
	}
	cancelBg()

	fmt.Println("Waiting for servers to stop...")
	wg.Wait()

	fmt.Println("Server gracefully stopped")
}

func runSeed(mongoDb *mongo.Database) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Println("Seeding database...")
	result, err := seed.Run(ctx, mongoDb)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	seed.PrintSummary(os.Stdout, result, auth.DefaultDemoAccounts())
	fmt.Println("Database seeding completed.")
}
