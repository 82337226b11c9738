package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Every endpoint answers with the same envelope:
// {success, message?, data?, error?}.

func respondData(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func respondErrorData(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{"success": false, "message": message, "data": data})
}

func respondServerError(c *gin.Context, route, message string, err error) {
	log.Printf("[%s] [ERROR] %s: %v", route, message, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}

func respondValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "validation failed",
			"data":    gin.H{"fields": fields},
		})
		return
	}
	respondError(c, http.StatusBadRequest, "invalid request body")
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "internal server error",
		})
	}
}

// userIDFromContext reads the id the auth middleware stored.
func userIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get("userId")
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized")
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func roleFromContext(c *gin.Context) string {
	role, _ := c.Get("role")
	if s, ok := role.(string); ok {
		return s
	}
	return ""
}
