package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Nivk0/ktpilot-rag-bot/internal/config"
	"github.com/Nivk0/ktpilot-rag-bot/internal/logger"
	"github.com/Nivk0/ktpilot-rag-bot/internal/telemetry"
	"github.com/Nivk0/ktpilot-rag-bot/middleware"
	"github.com/Nivk0/ktpilot-rag-bot/models"
	"github.com/Nivk0/ktpilot-rag-bot/services"
	"github.com/Nivk0/ktpilot-rag-bot/utils"
)

func SetupAskRoutes(router *gin.Engine, cfg *config.Config, db *mongo.Database, assembler *services.Assembler, metrics *telemetry.Metrics) {
	api := router.Group("/api")
	api.Use(middleware.RequireAuth(cfg.JWTSecret))

	messagesCollection := db.Collection("messages")

	// Ask the assistant a question about the uploaded documents
	api.POST("/ask", func(c *gin.Context) {
		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		tracer := otel.Tracer("ask-handler")
		ctx, span := tracer.Start(c.Request.Context(), "ask.handle")
		defer span.End()
		span.SetAttributes(attribute.Int("ask.query_chars", len(req.Query)))

		start := time.Now()
		answer, err := assembler.Ask(ctx, req.Query)
		if err != nil {
			if metrics != nil {
				metrics.RecordAsk("error", time.Since(start).Seconds(), 0)
			}
			logger.Error("Answer pipeline failed", "error", err,
				"request_id", middleware.GetRequestID(c))
			utils.RespondWithInternalError(c, "Failed to answer the question", nil)
			return
		}
		if metrics != nil {
			metrics.RecordAsk("ok", time.Since(start).Seconds(), int64(len(answer.Sources)))
			if answer.GeneratorFallback {
				metrics.RecordGeneratorFallback("generate_failed")
			}
		}

		conversationID := req.ConversationID
		if conversationID == "" {
			conversationID = uuid.New().String()
		}

		// Persist the exchange so it shows up in message history
		userID, _ := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		exchange := models.Message{
			FromUserID:     userID,
			FromName:       middleware.GetUsername(c),
			Message:        req.Query,
			Reply:          answer.Text,
			Sources:        answer.Sources,
			Kind:           models.MessageKindAssistant,
			ConversationID: conversationID,
			Timestamp:      time.Now(),
		}
		if _, err := messagesCollection.InsertOne(context.Background(), exchange); err != nil {
			logger.Error("Failed to persist assistant exchange", "error", err)
		}

		c.JSON(http.StatusOK, models.AskResponse{
			Answer:         answer.Text,
			Sources:        answer.Sources,
			ConversationID: conversationID,
			Timestamp:      time.Now(),
		})
	})

	// Lexical search over document chunks
	api.GET("/documents/search", func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			utils.RespondWithBadRequest(c, "Query parameter 'q' is required", nil)
			return
		}

		results, err := assembler.Search(c.Request.Context(), query)
		if err != nil {
			logger.Error("Document search failed", "error", err)
			utils.RespondWithInternalError(c, "Search failed", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"query":   query,
			"results": results,
			"count":   len(results),
		})
	})
}
