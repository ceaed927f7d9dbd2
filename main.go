package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/wisetreee/safe-haven/internal/api"
	"github.com/wisetreee/safe-haven/internal/api/handlers"
	"github.com/wisetreee/safe-haven/internal/cache"
	"github.com/wisetreee/safe-haven/internal/config"
	"github.com/wisetreee/safe-haven/internal/db"
	"github.com/wisetreee/safe-haven/internal/email"
	"github.com/wisetreee/safe-haven/internal/services"
	"github.com/wisetreee/safe-haven/internal/session"
	"github.com/wisetreee/safe-haven/internal/storage"
	"github.com/wisetreee/safe-haven/internal/store"
	"github.com/wisetreee/safe-haven/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'img' (image processing), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Demo mode: in-memory storage and sessions, no Redis, no workers.
	// Lets the API run without a live database.
	if cfg.StorageDriver == config.DriverMemory {
		runDemoMode(cfg)
		return
	}

	// Initialize Database
	gormDB, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Disconnect(gormDB); err != nil {
			log.Printf("Error disconnecting from Postgres: %v", err)
		}
	}()
	st := store.NewGormStore(gormDB)

	if cfg.SeedSampleData {
		if err := store.Seed(context.Background(), st); err != nil {
			log.Fatalf("Failed to seed sample data: %v", err)
		}
	}

	// Initialize Cache (Redis): sessions, asynq, mock email transport.
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	sessions := session.NewRedisManager(redisClient, cfg.SessionTTL)

	// Initialize S3 (image worker and photo endpoints) only when a bucket is
	// configured; without one the photo routes stay unregistered.
	var s3Client *s3.Client
	var s3StorageService storage.IS3Storage
	if cfg.AwsS3Bucket != "" {
		awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
			aws_config.WithRegion(cfg.AwsRegion),
			aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AwsAccessKeyID,
				cfg.AwsSecretAccessKey,
				"",
			)),
		)
		if err != nil {
			log.Fatalf("Failed to load AWS config for S3 client: %v", err)
		}
		s3Client = s3.NewFromConfig(awsCfg)

		s3StorageService, err = storage.NewS3Storage(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("AWS_S3_BUCKET not set: housing photo uploads disabled.")
	}

	finalEmailSender := buildEmailSender(cfg, redisClient)

	taskClient := tasks.NewClient(redisClient)
	housingService := services.NewHousingService(st)
	taskProcessor := tasks.NewTaskProcessor(cfg, finalEmailSender, housingService, s3Client)

	var wg sync.WaitGroup
	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server
	var imageTaskSrv *asynq.Server

	log.Printf("Starting application in '%s' mode...", cfg.RunMode)

	apiMode := func() {
		mainApiSrv = startAPIServer(cfg, &wg, api.SetupRouter(cfg, st, sessions, s3StorageService, taskClient))
	}

	bgMode := func() {
		srv, mux := tasks.SetupServer(redisClient, taskProcessor, false, true)
		backgroundTaskSrv = srv
		runTaskServer(&wg, "Background", srv, mux)
	}

	imgMode := func() {
		srv, mux := tasks.SetupServer(redisClient, taskProcessor, true, false)
		imageTaskSrv = srv
		runTaskServer(&wg, "Image processing", srv, mux)
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "img":
		imgMode()
	case "all":
		apiMode()
		bgMode()
		imgMode()
	default:
		log.Fatalf("Invalid run mode specified: %s.", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received signal: %s. Shutting down gracefully...", sig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if mainApiSrv != nil {
		log.Println("Shutting down API server...")
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}
	if backgroundTaskSrv != nil {
		log.Println("Shutting down background task server...")
		backgroundTaskSrv.Shutdown()
	}
	if imageTaskSrv != nil {
		log.Println("Shutting down image processing server...")
		imageTaskSrv.Shutdown()
	}

	log.Println("Waiting for servers to stop...")
	wg.Wait()
	log.Println("Server gracefully stopped")
}

// runDemoMode serves the full API from seeded in-memory state. Background
// workers and notifications are disabled.
func runDemoMode(cfg *config.Config) {
	log.Println("STORAGE_DRIVER=memory: running in demo mode (in-memory storage, no workers).")

	st := store.NewMemStore()
	if err := store.Seed(context.Background(), st); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
	sessions := session.NewMemoryManager(cfg.SessionTTL)

	var wg sync.WaitGroup
	srv := startAPIServer(cfg, &wg, api.SetupRouter(cfg, st, sessions, nil, nil))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received signal: %s. Shutting down gracefully...", sig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("API server shutdown error: %v", err)
	}
	wg.Wait()
	log.Println("Server gracefully stopped")
}

func startAPIServer(cfg *config.Config, wg *sync.WaitGroup, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:    ":" + cfg.ApiPort,
		Handler: handler,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("API listening on :%s", cfg.ApiPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API ListenAndServe error: %v", err)
		}
		log.Println("API server stopped.")
	}()
	return srv
}

func runTaskServer(wg *sync.WaitGroup, name string, srv *asynq.Server, mux *asynq.ServeMux) {
	if srv == nil {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("%s task server starting...", name)
		if err := srv.Run(mux); err != nil {
			log.Fatalf("%s task server error: %v", name, err)
		}
		log.Printf("%s task server stopped.", name)
	}()
}

// buildEmailSender wires the notification transport: the Redis mock under
// MOCK_SERVICES, SMTP otherwise, plus an optional file logger via LOG_EMAILS.
func buildEmailSender(cfg *config.Config, redisClient *redis.Client) email.Sender {
	var primaryEmailSender email.Sender
	if os.Getenv("MOCK_SERVICES") == "true" {
		log.Println("MOCK_SERVICES enabled: Using Redis email sender.")
		primaryEmailSender = email.NewRedisSender(redisClient, cfg)
	} else {
		primaryEmailSender = email.NewSMTPSender(cfg)
	}

	compositeSender := email.NewCompositeEmailSender(primaryEmailSender)

	if logEmailsPath := os.Getenv("LOG_EMAILS"); logEmailsPath != "" {
		fileSender, err := email.NewFileEmailSender(logEmailsPath)
		if err != nil {
			log.Printf("WARNING: Failed to initialize file email sender (LOG_EMAILS='%s'): %v. Proceeding without file logging.", logEmailsPath, err)
		} else {
			compositeSender.AddSender(fileSender)
			log.Println("File email logger added to composite sender.")
		}
	}

	return compositeSender
}

var _ handlers.IAsynqClient = (*asynq.Client)(nil)
