package middleware

import (
	"net/http"
	"strings"

	"casicasi/services"

	"github.com/gin-gonic/gin"
)

// AdminAuth guards the question-bank admin endpoints with a bearer token
// issued by the auth service.
func AdminAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		username, err := auth.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("admin_user", username)
		c.Next()
	}
}
