package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Nivk0/ktpilot-rag-bot/internal/config"
	"github.com/Nivk0/ktpilot-rag-bot/middleware"
	"github.com/Nivk0/ktpilot-rag-bot/models"
	"github.com/Nivk0/ktpilot-rag-bot/utils"
)

func SetupMessageRoutes(router *gin.Engine, cfg *config.Config, db *mongo.Database) {
	api := router.Group("/api")
	api.Use(middleware.RequireAuth(cfg.JWTSecret))

	messagesCollection := db.Collection("messages")
	contactsCollection := db.Collection("contacts")
	usersCollection := db.Collection("users")

	// Send a direct message to another member
	api.POST("/messages", func(c *gin.Context) {
		var req models.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		fromID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid token subject")
			return
		}
		toID, err := primitive.ObjectIDFromHex(req.To)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid recipient ID", nil)
			return
		}

		var recipient models.User
		if err := usersCollection.FindOne(context.Background(), bson.M{"_id": toID}).Decode(&recipient); err != nil {
			utils.RespondWithNotFound(c, "Recipient not found")
			return
		}

		msg := models.Message{
			FromUserID:     fromID,
			FromName:       middleware.GetUsername(c),
			ToUserID:       toID,
			Message:        req.Message,
			Kind:           models.MessageKindDirect,
			ConversationID: conversationKey(fromID, toID),
			Timestamp:      time.Now(),
		}

		result, err := messagesCollection.InsertOne(context.Background(), msg)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to send message", nil)
			return
		}
		msg.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, msg)
	})

	// List the conversation with another member, oldest first
	api.GET("/messages/:userId", func(c *gin.Context) {
		myID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid token subject")
			return
		}
		otherID, err := primitive.ObjectIDFromHex(c.Param("userId"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid user ID", nil)
			return
		}

		cursor, err := messagesCollection.Find(context.Background(),
			bson.M{"conversation_id": conversationKey(myID, otherID), "kind": models.MessageKindDirect},
			options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}).SetLimit(200))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load conversation", nil)
			return
		}
		defer cursor.Close(context.Background())

		messages := make([]models.Message, 0)
		if err := cursor.All(context.Background(), &messages); err != nil {
			utils.RespondWithInternalError(c, "Failed to load conversation", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
	})

	// Contacts
	api.GET("/contacts", func(c *gin.Context) {
		myID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid token subject")
			return
		}

		cursor, err := contactsCollection.Find(context.Background(),
			bson.M{"owner_id": myID},
			options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load contacts", nil)
			return
		}
		defer cursor.Close(context.Background())

		contacts := make([]models.Contact, 0)
		if err := cursor.All(context.Background(), &contacts); err != nil {
			utils.RespondWithInternalError(c, "Failed to load contacts", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"contacts": contacts, "count": len(contacts)})
	})

	api.POST("/contacts", func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id" binding:"required,hexadecimal,len=24"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		myID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid token subject")
			return
		}
		userID, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid user ID", nil)
			return
		}

		var user models.User
		if err := usersCollection.FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user); err != nil {
			utils.RespondWithNotFound(c, "User not found")
			return
		}

		var existing models.Contact
		if err := contactsCollection.FindOne(context.Background(),
			bson.M{"owner_id": myID, "user_id": userID}).Decode(&existing); err == nil {
			c.JSON(http.StatusOK, existing)
			return
		}

		contact := models.Contact{
			OwnerID:   myID,
			UserID:    userID,
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: time.Now(),
		}
		result, err := contactsCollection.InsertOne(context.Background(), contact)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to add contact", nil)
			return
		}
		contact.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, contact)
	})
}

// conversationKey builds a stable ID for a member pair regardless of who
// sent first.
func conversationKey(a, b primitive.ObjectID) string {
	ah, bh := a.Hex(), b.Hex()
	if ah < bh {
		return ah + ":" + bh
	}
	return bh + ":" + ah
}
