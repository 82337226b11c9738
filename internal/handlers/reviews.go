package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/models"
	"bookstore/internal/store"
)

type addReviewRequest struct {
	Rating int    `json:"rating" binding:"required,gte=1,lte=5"`
	Text   string `json:"text" binding:"required"`
}

func recalculateRating(book *models.Book) {
	book.TotalReviews = len(book.Reviews)
	if book.TotalReviews == 0 {
		book.AverageRating = 0
		return
	}
	sum := 0
	for _, review := range book.Reviews {
		sum += review.Rating
	}
	book.AverageRating = float64(sum) / float64(book.TotalReviews)
}

// AddReview appends a review to the book, one per user, and refreshes the
// denormalized rating fields.
func AddReview(books store.BookStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /books/:bookId/reviews"
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

		var req addReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		book, err := books.FindByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				respondError(c, http.StatusNotFound, "Book not found")
				return
			}
			respondServerError(c, route, "Error adding review", err)
			return
		}

		for _, review := range book.Reviews {
			if review.UserID == userID {
				respondError(c, http.StatusBadRequest, "You have already reviewed this book")
				return
			}
		}

		review := models.Review{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			Rating:    req.Rating,
			Text:      strings.TrimSpace(req.Text),
			CreatedAt: time.Now(),
		}
		book.Reviews = append(book.Reviews, review)
		recalculateRating(book)

		if err := books.Update(ctx, book); err != nil {
			respondServerError(c, route, "Error adding review", err)
			return
		}

		respondData(c, http.StatusCreated, "Review added", review)
	}
}

// DeleteReview removes a review; only its author or an admin may do so.
func DeleteReview(books store.BookStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /books/:bookId/reviews/:reviewId"
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
		reviewID, err := primitive.ObjectIDFromHex(c.Param("reviewId"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid reviewId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		book, err := books.FindByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				respondError(c, http.StatusNotFound, "Book not found")
				return
			}
			respondServerError(c, route, "Error deleting review", err)
			return
		}

		idx := -1
		for i, review := range book.Reviews {
			if review.ID == reviewID {
				idx = i
				break
			}
		}
		if idx == -1 {
			respondError(c, http.StatusNotFound, "Review not found")
			return
		}

		if book.Reviews[idx].UserID != userID && roleFromContext(c) != models.RoleAdmin {
			respondError(c, http.StatusForbidden, "Not authorized to delete this review")
			return
		}

		book.Reviews = append(book.Reviews[:idx], book.Reviews[idx+1:]...)
		recalculateRating(book)

		if err := books.Update(ctx, book); err != nil {
			respondServerError(c, route, "Error deleting review", err)
			return
		}

		respondData(c, http.StatusOK, "Review deleted", nil)
	}
}

// GetBookReviews lists the reviews embedded in a book.
func GetBookReviews(books store.BookStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /books/:bookId/reviews"
		defer handlePanic(c, route)

		bookID, err := primitive.ObjectIDFromHex(c.Param("bookId"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid bookId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		book, err := books.FindByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				respondError(c, http.StatusNotFound, "Book not found")
				return
			}
			respondServerError(c, route, "Error fetching reviews", err)
			return
		}

		respondData(c, http.StatusOK, "", gin.H{
			"reviews":       book.Reviews,
			"averageRating": book.AverageRating,
			"totalReviews":  book.TotalReviews,
		})
	}
}
