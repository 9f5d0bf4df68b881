package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nivk0/ktpilot-rag-bot/models"
	"github.com/Nivk0/ktpilot-rag-bot/utils"
)

// RequireAuth validates the bearer token and stores the caller's identity
// in the request context.
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := utils.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString == "" {
			utils.RespondWithUnauthorized(c, "Authentication token is required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(tokenString, jwtSecret)
		if err != nil {
			utils.RespondWithError(c, http.StatusUnauthorized,
				"invalid_token",
				"Authentication token is invalid or expired",
				gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Set("claims", claims)

		c.Next()
	}
}

// RequireExecutive gates the executive panel. It must run after RequireAuth.
func RequireExecutive() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != models.RoleExecutive {
			utils.RespondWithForbidden(c, "Executive role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's ID from context.
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

// GetUsername returns the authenticated username from context.
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get("username"); exists {
		if u, ok := username.(string); ok {
			return u
		}
	}
	return ""
}

// GetRole returns the authenticated role from context.
func GetRole(c *gin.Context) string {
	if role, exists := c.Get("role"); exists {
		if r, ok := role.(string); ok {
			return r
		}
	}
	return ""
}
