package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Nivk0/ktpilot-rag-bot/internal/config"
	"github.com/Nivk0/ktpilot-rag-bot/middleware"
	"github.com/Nivk0/ktpilot-rag-bot/models"
	"github.com/Nivk0/ktpilot-rag-bot/services"
	"github.com/Nivk0/ktpilot-rag-bot/utils"
)

// SetupAdminRoutes wires the executive panel. Everything here requires the
// executive role.
func SetupAdminRoutes(router *gin.Engine, cfg *config.Config, db *mongo.Database) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.RequireAuth(cfg.JWTSecret), middleware.RequireExecutive())

	usersCollection := db.Collection("users")
	messagesCollection := db.Collection("messages")
	documentsCollection := db.Collection("documents")

	// List all members
	admin.GET("/users", func(c *gin.Context) {
		cursor, err := usersCollection.Find(context.Background(), bson.M{},
			options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list users", nil)
			return
		}
		defer cursor.Close(context.Background())

		users := make([]models.User, 0)
		if err := cursor.All(context.Background(), &users); err != nil {
			utils.RespondWithInternalError(c, "Failed to list users", nil)
			return
		}

		infos := make([]models.UserInfo, 0, len(users))
		for _, u := range users {
			infos = append(infos, models.UserInfo{
				ID:       u.ID.Hex(),
				Username: u.Username,
				Name:     u.Name,
				Email:    u.Email,
				Role:     u.Role,
			})
		}

		c.JSON(http.StatusOK, gin.H{"users": infos, "count": len(infos)})
	})

	// Aggregate usage stats
	admin.GET("/stats", func(c *gin.Context) {
		ctx := context.Background()

		userCount, err := usersCollection.CountDocuments(ctx, bson.M{})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to compute stats", nil)
			return
		}
		messageCount, err := messagesCollection.CountDocuments(ctx, bson.M{})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to compute stats", nil)
			return
		}
		assistantCount, err := messagesCollection.CountDocuments(ctx,
			bson.M{"kind": models.MessageKindAssistant})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to compute stats", nil)
			return
		}
		documentCount, err := documentsCollection.CountDocuments(ctx,
			bson.M{"status": models.DocStatusCompleted})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to compute stats", nil)
			return
		}

		weekAgo := time.Now().AddDate(0, 0, -7)
		recentMessages, err := messagesCollection.CountDocuments(ctx,
			bson.M{"timestamp": bson.M{"$gte": weekAgo}})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to compute stats", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"users":               userCount,
			"messages":            messageCount,
			"assistant_exchanges": assistantCount,
			"documents":           documentCount,
			"messages_last_7d":    recentMessages,
		})
	})

	// Export message history as a spreadsheet
	admin.GET("/messages/export", func(c *gin.Context) {
		cursor, err := messagesCollection.Find(context.Background(), bson.M{},
			options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load messages", nil)
			return
		}
		defer cursor.Close(context.Background())

		messages := make([]models.Message, 0)
		if err := cursor.All(context.Background(), &messages); err != nil {
			utils.RespondWithInternalError(c, "Failed to load messages", nil)
			return
		}

		buf, err := services.ExportMessagesXLSX(messages)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build export", nil)
			return
		}

		filename := fmt.Sprintf("messages-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			buf.Bytes())
	})
}
