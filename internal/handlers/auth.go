package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"bookstore/internal/models"
	"bookstore/internal/store"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func issueToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": user.ID.Hex(),
		"role":   user.Role,
		"exp":    time.Now().Add(ttl).Unix(),
		"iat":    time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Register creates a user account with the default role.
func Register(users store.UserStore, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondServerError(c, route, "Error registering user", err)
			return
		}

		user := &models.User{
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: string(hash),
			Name:         strings.TrimSpace(req.Name),
			Role:         models.RoleUser,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := users.Insert(ctx, user); err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				respondError(c, http.StatusBadRequest, "Email already registered")
				return
			}
			respondServerError(c, route, "Error registering user", err)
			return
		}

		token, err := issueToken(user, jwtSecret, accessTTL)
		if err != nil {
			respondServerError(c, route, "Error registering user", err)
			return
		}

		log.Printf("[%s] user %s registered", route, user.ID.Hex())
		respondData(c, http.StatusCreated, "Registration successful", gin.H{
			"user":  user,
			"token": token,
		})
	}
}

// Login verifies credentials and issues an access token carrying the role.
func Login(users store.UserStore, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				respondError(c, http.StatusUnauthorized, "Invalid email or password")
				return
			}
			respondServerError(c, route, "Error logging in", err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		token, err := issueToken(user, jwtSecret, accessTTL)
		if err != nil {
			respondServerError(c, route, "Error logging in", err)
			return
		}

		respondData(c, http.StatusOK, "Login successful", gin.H{
			"user":  user,
			"token": token,
		})
	}
}

// GetMe returns the authenticated account.
func GetMe(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/me"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				respondError(c, http.StatusNotFound, "User not found")
				return
			}
			respondServerError(c, route, "Error fetching profile", err)
			return
		}

		respondData(c, http.StatusOK, "", user)
	}
}
