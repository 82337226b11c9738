package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/models"
	"bookstore/internal/store"
)

type wishlistRequest struct {
	BookID string `json:"bookId" binding:"required"`
}

// AddToWishlist records a book on the user's wishlist.
func AddToWishlist(books store.BookStore, users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /wishlist"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		var req wishlistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		bookID, err := primitive.ObjectIDFromHex(req.BookID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid bookId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if _, err := books.FindByID(ctx, bookID); err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				respondError(c, http.StatusNotFound, "Book not found")
				return
			}
			respondServerError(c, route, "Error adding to wishlist", err)
			return
		}

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			respondServerError(c, route, "Error adding to wishlist", err)
			return
		}
		for _, id := range user.Wishlist {
			if id == bookID {
				respondError(c, http.StatusBadRequest, "Book already in wishlist")
				return
			}
		}

		if err := users.AddToWishlist(ctx, userID, bookID); err != nil {
			respondServerError(c, route, "Error adding to wishlist", err)
			return
		}

		respondData(c, http.StatusOK, "Book added to wishlist", nil)
	}
}

// RemoveFromWishlist drops a book from the wishlist.
func RemoveFromWishlist(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /wishlist/:bookId"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		bookID, err := primitive.ObjectIDFromHex(c.Param("bookId"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid bookId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := users.RemoveFromWishlist(ctx, userID, bookID); err != nil {
			respondServerError(c, route, "Error removing from wishlist", err)
			return
		}

		respondData(c, http.StatusOK, "Book removed from wishlist", nil)
	}
}

// GetWishlist resolves the wishlist to full book documents. Books removed
// from the catalog are silently skipped.
func GetWishlist(books store.BookStore, users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /wishlist"
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
			respondServerError(c, route, "Error fetching wishlist", err)
			return
		}

		list := make([]models.Book, 0, len(user.Wishlist))
		for _, bookID := range user.Wishlist {
			book, err := books.FindByID(ctx, bookID)
			if err != nil {
				if errors.Is(err, store.ErrBookNotFound) {
					continue
				}
				respondServerError(c, route, "Error fetching wishlist", err)
				return
			}
			list = append(list, *book)
		}

		respondData(c, http.StatusOK, "", list)
	}
}
