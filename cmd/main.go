package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Nivk0/ktpilot-rag-bot/internal/ai"
	"github.com/Nivk0/ktpilot-rag-bot/internal/config"
	"github.com/Nivk0/ktpilot-rag-bot/internal/logger"
	"github.com/Nivk0/ktpilot-rag-bot/internal/telemetry"
	"github.com/Nivk0/ktpilot-rag-bot/middleware"
	"github.com/Nivk0/ktpilot-rag-bot/routes"
	"github.com/Nivk0/ktpilot-rag-bot/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	// Redis is used for rate limiting and the task queue. The server
	// still runs without it, just without those two features.
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, rate limiting and async uploads disabled", "error", err)
		rdb = nil
	}

	var asynqClient *asynq.Client
	if rdb != nil {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer asynqClient.Close()
	}

	// Tracing and metrics
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("ktpilot-rag-bot", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Failed to initialize tracer", "error", err)
		} else {
			defer shutdown()
		}
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Failed to initialize metrics", "error", err)
		metrics = nil
	}

	// Generative collaborator; absence is a supported configuration
	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()
	if !geminiClient.Available() {
		logger.Info("No Gemini API key configured, answers will use extracted sentences")
	}

	// Build the answering engine
	engineCfg := services.EngineConfigFromApp(cfg)
	store := services.NewMongoDocumentStore(db, metrics)
	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	scorer := services.NewLexicalScorer(engineCfg)
	retriever := services.NewRetriever(store, scorer, chunker, engineCfg)
	selector := services.NewDiversitySelector(engineCfg)
	extractor := services.NewSentenceExtractor(engineCfg)
	assembler := services.NewAssembler(store, retriever, selector, extractor, scorer,
		geminiClient, services.NewStaticKnowledgeBase(), engineCfg,
		time.Duration(cfg.GeminiTimeout)*time.Second)

	textExtractor := services.NewTextExtractor()
	mailer := services.NewSMTPEmailSender(cfg)

	// Periodic cleanup of expired reset codes
	cron := services.NewCronService(db.Collection("reset_codes"))
	go cron.Start()
	defer cron.Stop()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware("ktpilot-rag-bot"))
	}
	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}
	if metrics != nil {
		router.Use(func(c *gin.Context) {
			start := time.Now()
			c.Next()
			metrics.RecordRequest(c.Request.Method, c.FullPath(),
				strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
		})
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupAuthRoutes(router, cfg, db, mailer)
	routes.SetupAskRoutes(router, cfg, db, assembler, metrics)
	routes.SetupDocumentRoutes(router, cfg, store, textExtractor, chunker, asynqClient)
	routes.SetupMessageRoutes(router, cfg, db)
	routes.SetupAdminRoutes(router, cfg, db)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
