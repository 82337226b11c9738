package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthGuard validates the bearer token and injects userId and role into the
// context. With no allowedRoles every authenticated caller passes; otherwise
// the caller's role must be listed.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}

		userIDValue, ok := claims["userId"].(string)
		if !ok || strings.TrimSpace(userIDValue) == "" {
			log.Println("[AUTH] [ERROR] userId claim missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}

		userID, err := primitive.ObjectIDFromHex(userIDValue)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}

		role, _ := claims["role"].(string)
		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if role == r {
					match = true
					break
				}
			}
			if !match {
				log.Printf("[AUTH] [ERROR] role %q not authorized", role)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "forbidden"})
				return
			}
		}

		c.Set("userId", userID)
		c.Set("role", role)
		c.Next()
	}
}
