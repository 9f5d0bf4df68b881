package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Nivk0/ktpilot-rag-bot/internal/config"
	"github.com/Nivk0/ktpilot-rag-bot/internal/logger"
	"github.com/Nivk0/ktpilot-rag-bot/middleware"
	"github.com/Nivk0/ktpilot-rag-bot/models"
	"github.com/Nivk0/ktpilot-rag-bot/services"
	"github.com/Nivk0/ktpilot-rag-bot/utils"
)

func SetupAuthRoutes(router *gin.Engine, cfg *config.Config, db *mongo.Database, mailer services.EmailSender) {
	auth := router.Group("/api/auth")

	usersCollection := db.Collection("users")
	resetCodesCollection := db.Collection("reset_codes")

	// Register endpoint. New accounts are always plain members; the
	// executive role is granted out of band.
	auth.POST("/register", func(c *gin.Context) {
		var req models.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		var existingUser models.User
		if err := usersCollection.FindOne(context.Background(), bson.M{"username": req.Username}).Decode(&existingUser); err == nil {
			c.JSON(http.StatusConflict, gin.H{
				"error_code": "username_exists",
				"message":    "Username already exists",
			})
			return
		}

		hashedPassword, err := utils.HashPassword(req.Password, cfg.BcryptCost)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to process password", nil)
			return
		}

		user := models.User{
			Username:     req.Username,
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hashedPassword,
			Role:         models.RoleMember,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		result, err := usersCollection.InsertOne(context.Background(), user)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create user", nil)
			return
		}

		userID := result.InsertedID.(primitive.ObjectID).Hex()
		duration, _ := time.ParseDuration(cfg.JWTExpiresIn)
		token, err := utils.GenerateJWT(userID, req.Username, models.RoleMember, cfg.JWTSecret, duration)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to generate token", nil)
			return
		}

		c.JSON(http.StatusCreated, models.LoginResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(duration),
			User: models.UserInfo{
				ID:       userID,
				Username: req.Username,
				Name:     req.Name,
				Email:    req.Email,
				Role:     models.RoleMember,
			},
		})
	})

	// Login endpoint
	auth.POST("/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := usersCollection.FindOne(context.Background(), bson.M{"username": req.Username}).Decode(&user); err != nil {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		if !utils.CheckPassword(req.Password, user.PasswordHash) {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		duration, _ := time.ParseDuration(cfg.JWTExpiresIn)
		token, err := utils.GenerateJWT(user.ID.Hex(), user.Username, user.Role, cfg.JWTSecret, duration)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to generate token", nil)
			return
		}

		c.JSON(http.StatusOK, models.LoginResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(duration),
			User: models.UserInfo{
				ID:       user.ID.Hex(),
				Username: user.Username,
				Name:     user.Name,
				Email:    user.Email,
				Role:     user.Role,
			},
		})
	})

	// Forgot password: always answer 200 so the endpoint cannot be used
	// to probe which emails are registered.
	auth.POST("/forgot", func(c *gin.Context) {
		var req models.ForgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		genericReply := gin.H{"message": "If that email is registered, a reset code has been sent"}

		var user models.User
		if err := usersCollection.FindOne(context.Background(), bson.M{"email": req.Email}).Decode(&user); err != nil {
			c.JSON(http.StatusOK, genericReply)
			return
		}

		code, err := utils.GenerateResetCode()
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to generate reset code", nil)
			return
		}

		resetCode := models.ResetCode{
			Email:     req.Email,
			Code:      code,
			ExpiresAt: time.Now().Add(15 * time.Minute),
			CreatedAt: time.Now(),
		}
		if _, err := resetCodesCollection.InsertOne(context.Background(), resetCode); err != nil {
			utils.RespondWithInternalError(c, "Failed to store reset code", nil)
			return
		}

		if err := mailer.SendResetCode(req.Email, code); err != nil {
			logger.Error("Failed to send reset code email", "email", req.Email, "error", err)
			utils.RespondWithInternalError(c, "Failed to send reset code", nil)
			return
		}

		c.JSON(http.StatusOK, genericReply)
	})

	// Reset password with a previously emailed code
	auth.POST("/reset", func(c *gin.Context) {
		var req models.ResetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		var resetCode models.ResetCode
		err := resetCodesCollection.FindOne(context.Background(), bson.M{
			"email":      req.Email,
			"code":       req.Code,
			"expires_at": bson.M{"$gt": time.Now()},
		}).Decode(&resetCode)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid or expired reset code", nil)
			return
		}

		hashedPassword, err := utils.HashPassword(req.NewPassword, cfg.BcryptCost)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to process password", nil)
			return
		}

		result, err := usersCollection.UpdateOne(context.Background(),
			bson.M{"email": req.Email},
			bson.M{"$set": bson.M{"password_hash": hashedPassword, "updated_at": time.Now()}})
		if err != nil || result.MatchedCount == 0 {
			utils.RespondWithInternalError(c, "Failed to update password", nil)
			return
		}

		// Used codes are single-shot
		resetCodesCollection.DeleteMany(context.Background(), bson.M{"email": req.Email})

		c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
	})

	// Current user info
	authed := router.Group("/api/auth")
	authed.Use(middleware.RequireAuth(cfg.JWTSecret))
	authed.GET("/me", func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		objID, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid token subject")
			return
		}

		var user models.User
		if err := usersCollection.FindOne(context.Background(), bson.M{"_id": objID}).Decode(&user); err != nil {
			utils.RespondWithNotFound(c, "User not found")
			return
		}

		c.JSON(http.StatusOK, models.UserInfo{
			ID:       user.ID.Hex(),
			Username: user.Username,
			Name:     user.Name,
			Email:    user.Email,
			Role:     user.Role,
		})
	})
}
