package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Nivk0/ktpilot-rag-bot/internal/config"
	"github.com/Nivk0/ktpilot-rag-bot/internal/logger"
	"github.com/Nivk0/ktpilot-rag-bot/internal/queue"
	"github.com/Nivk0/ktpilot-rag-bot/internal/telemetry"
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

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Failed to initialize metrics", "error", err)
		metrics = nil
	}

	store := services.NewMongoDocumentStore(db, metrics)
	extractor := services.NewTextExtractor()
	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	processor := queue.NewTaskProcessor(store, extractor, chunker, metrics)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskDocumentProcess, processor.ProcessDocument)

	logger.Info("Starting worker", "redis", redisOpt.Addr, "concurrency", 10)
	if err := server.Run(mux); err != nil {
		log.Fatalf("Worker stopped: %v", err)
	}
}
