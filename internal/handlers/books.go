package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/models"
	"bookstore/internal/store"
)

type bookRequest struct {
	Title       string  `json:"title" binding:"required"`
	Author      string  `json:"author" binding:"required"`
	Description string  `json:"description"`
	ISBN        string  `json:"isbn" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Discount    float64 `json:"discount" binding:"gte=0,lte=100"`
	Pages       int     `json:"pages"`
	Category    string  `json:"category" binding:"required"`
	CoverImage  string  `json:"coverImage"`
	Stock       int     `json:"stock" binding:"gte=0"`
	IsFeatured  bool    `json:"isFeatured"`
}

// bookSortField whitelists the sortable catalog fields so the query value
// never reaches the sort document unchecked.
func bookSortField(raw string) string {
	switch raw {
	case "price", "averageRating", "title", "totalSales", "createdAt":
		return raw
	default:
		return "createdAt"
	}
}

func parseFloatQuery(c *gin.Context, key string) float64 {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// GetBooks lists approved books with filtering, sorting and pagination.
// Price bounds apply to the discounted price.
func GetBooks(books store.BookStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /books"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		filter := store.BookFilter{
			Category: strings.TrimSpace(c.Query("category")),
			Author:   strings.TrimSpace(c.Query("author")),
			MinPrice: parseFloatQuery(c, "minPrice"),
			MaxPrice: parseFloatQuery(c, "maxPrice"),
			SortBy:   bookSortField(c.Query("sort")),
			SortDesc: c.DefaultQuery("order", "desc") != "asc",
			Page:     page,
			Limit:    limit,
		}

		if rating := parseFloatQuery(c, "rating"); rating > 0 {
			filter.MinRating = rating
			filter.MaxRating = rating + 0.99
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		list, total, err := books.List(ctx, filter)
		if err != nil {
			respondServerError(c, route, "Error fetching books", err)
			return
		}

		respondData(c, http.StatusOK, "", gin.H{
			"books":      list,
			"pagination": paginationBlock(page, limit, total),
		})
	}
}

// GetFeaturedBooks returns the curated storefront shelf.
func GetFeaturedBooks(books store.BookStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /books/featured"
		defer handlePanic(c, route)

		limit := int64(10)
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		list, err := books.Featured(ctx, limit)
		if err != nil {
			respondServerError(c, route, "Error fetching featured books", err)
			return
		}

		respondData(c, http.StatusOK, "", gin.H{"books": list})
	}
}

// GetBookByID returns a single book.
func GetBookByID(books store.BookStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /books/:bookId"
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
			respondServerError(c, route, "Error fetching book", err)
			return
		}

		respondData(c, http.StatusOK, "", book)
	}
}

// CreateBook adds a catalog entry owned by the submitter. Admin submissions
// go live immediately; author submissions wait for approval.
func CreateBook(books store.BookStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /books"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		var req bookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		book := &models.Book{
			Title:       strings.TrimSpace(req.Title),
			Author:      strings.TrimSpace(req.Author),
			Description: strings.TrimSpace(req.Description),
			ISBN:        strings.TrimSpace(req.ISBN),
			Price:       req.Price,
			Discount:    req.Discount,
			Pages:       req.Pages,
			Category:    strings.TrimSpace(req.Category),
			CoverImage:  req.CoverImage,
			Stock:       req.Stock,
			IsFeatured:  req.IsFeatured,
			IsApproved:  roleFromContext(c) == models.RoleAdmin,
			CreatedBy:   userID,
			Reviews:     []models.Review{},
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := books.Insert(ctx, book); err != nil {
			respondServerError(c, route, "Error creating book", err)
			return
		}

		log.Printf("[%s] book %s created (approved=%v)", route, book.ID.Hex(), book.IsApproved)
		respondData(c, http.StatusCreated, "Book created", book)
	}
}

// canModifyBook reports whether the caller may edit or remove the entry:
// admins always, authors only for their own submissions.
func canModifyBook(c *gin.Context, book *models.Book, userID primitive.ObjectID) bool {
	return roleFromContext(c) == models.RoleAdmin || book.CreatedBy == userID
}

// GetMyBooks lists the caller's own submissions, approved or not.
func GetMyBooks(books store.BookStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /books/my"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		list, total, err := books.ListByCreator(ctx, userID, page, limit)
		if err != nil {
			respondServerError(c, route, "Error fetching books", err)
			return
		}

		respondData(c, http.StatusOK, "", gin.H{
			"books":      list,
			"pagination": paginationBlock(page, limit, total),
		})
	}
}

// UpdateBook replaces the editable fields of a catalog entry. Authors may
// only touch their own entries; admins may touch any.
func UpdateBook(books store.BookStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /books/:bookId"
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

		var req bookRequest
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
			respondServerError(c, route, "Error updating book", err)
			return
		}

		if !canModifyBook(c, book, userID) {
			respondError(c, http.StatusForbidden, "Not authorized to modify this book")
			return
		}

		book.Title = strings.TrimSpace(req.Title)
		book.Author = strings.TrimSpace(req.Author)
		book.Description = strings.TrimSpace(req.Description)
		book.ISBN = strings.TrimSpace(req.ISBN)
		book.Price = req.Price
		book.Discount = req.Discount
		book.Pages = req.Pages
		book.Category = strings.TrimSpace(req.Category)
		book.CoverImage = req.CoverImage
		book.Stock = req.Stock
		book.IsFeatured = req.IsFeatured

		if err := books.Update(ctx, book); err != nil {
			respondServerError(c, route, "Error updating book", err)
			return
		}

		respondData(c, http.StatusOK, "Book updated", book)
	}
}

// DeleteBook removes a catalog entry, with the same ownership rule as
// UpdateBook.
func DeleteBook(books store.BookStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /books/:bookId"
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

		book, err := books.FindByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				respondError(c, http.StatusNotFound, "Book not found")
				return
			}
			respondServerError(c, route, "Error deleting book", err)
			return
		}

		if !canModifyBook(c, book, userID) {
			respondError(c, http.StatusForbidden, "Not authorized to modify this book")
			return
		}

		if err := books.Delete(ctx, bookID); err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				respondError(c, http.StatusNotFound, "Book not found")
				return
			}
			respondServerError(c, route, "Error deleting book", err)
			return
		}

		respondData(c, http.StatusOK, "Book deleted", nil)
	}
}
