package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/XG2020/zaobao/internal/auth"
	"github.com/XG2020/zaobao/internal/briefings"
	"github.com/XG2020/zaobao/internal/chat"
	"github.com/XG2020/zaobao/internal/config"
	"github.com/XG2020/zaobao/internal/crypto"
	"github.com/XG2020/zaobao/internal/database"
	"github.com/XG2020/zaobao/internal/health"
	"github.com/XG2020/zaobao/internal/sources"
	"github.com/XG2020/zaobao/internal/streams"
	"github.com/XG2020/zaobao/internal/worker"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	if cfg.Env == "development" {
		if err := database.SeedDevData(db); err != nil {
			log.Printf("Warning: failed to seed dev data: %v", err)
		}
	}

	registry, err := sources.InitSources(db, cfg.SourceDir)
	if err != nil {
		log.Fatalf("failed to initialize sources: %v", err)
	}

	var encryptor *crypto.TokenEncryptor
	if cfg.TokenEncryptionKey != "" {
		encryptor, err = crypto.NewTokenEncryptor(cfg.TokenEncryptionKey)
		if err != nil {
			log.Fatalf("failed to initialize token encryptor: %v", err)
		}
	} else {
		log.Println("WARNING: TOKEN_ENCRYPTION_KEY not set. Per-chat tokens cannot be stored.")
	}

	var chatClient *chat.Client
	if cfg.ChatWebhookURL != "" {
		chatClient = chat.NewClient(cfg.ChatWebhookURL, cfg.ChatWebhookSecret)
	} else {
		log.Println("WARNING: CHAT_WEBHOOK_URL not set. Briefings will only be published to the delivery stream.")
	}

	publisher, err := streams.NewPublisher(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to create stream publisher: %v", err)
	}
	defer publisher.Close()

	if err := worker.InitClient(cfg.RedisURL); err != nil {
		log.Fatalf("failed to initialize task client: %v", err)
	}
	defer worker.CloseClient()

	deps := worker.Deps{
		DB:         db,
		ChatClient: chatClient,
		Publisher:  publisher,
		Encryptor:  encryptor,
	}

	stopWorker, err := worker.Start(cfg, deps)
	if err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}
	defer stopWorker()

	stopScheduler, err := worker.StartScheduler(cfg)
	if err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer stopScheduler()

	stopConsumer, err := streams.StartAckConsumer(cfg.RedisURL, db)
	if err != nil {
		log.Fatalf("failed to start ack consumer: %v", err)
	}
	defer stopConsumer()

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.GET("/health", gin.WrapF(health.Handler))

	api := router.Group("/api", auth.RequireAPIKey(cfg.APIKey))
	api.POST("/briefings", briefings.CreateRunHandler(db))
	api.GET("/briefings/:run_id", briefings.GetRunHandler(db))
	api.POST("/subscriptions", briefings.UpsertSubscriptionHandler(db, registry, encryptor))
	api.GET("/subscriptions", briefings.ListSubscriptionsHandler(db))

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on :%s", cfg.Port)
		errCh <- router.Run(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}
}
