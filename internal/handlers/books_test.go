package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/models"
	"bookstore/internal/store"
)

func bookBody(title string) gin.H {
	return gin.H{
		"title":    title,
		"author":   "Frank Herbert",
		"isbn":     primitive.NewObjectID().Hex(),
		"price":    200.0,
		"category": "fiction",
		"stock":    5,
	}
}

func TestCreateBookRecordsOwnerAndApproval(t *testing.T) {
	books := store.NewMemoryBookStore()
	authorID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()

	code, _ := invokeAs(t, CreateBook(books), http.MethodPost, bookBody("Dune"), authorID, models.RoleAuthor)
	require.Equal(t, http.StatusCreated, code)

	code, _ = invokeAs(t, CreateBook(books), http.MethodPost, bookBody("Foundation"), adminID, models.RoleAdmin)
	require.Equal(t, http.StatusCreated, code)

	mine, _, err := books.ListByCreator(context.Background(), authorID, 1, 20)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, authorID, mine[0].CreatedBy)
	assert.False(t, mine[0].IsApproved)

	theirs, _, err := books.ListByCreator(context.Background(), adminID, 1, 20)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.True(t, theirs[0].IsApproved)
}

func TestGetMyBooksListsOwnSubmissionsOnly(t *testing.T) {
	books := store.NewMemoryBookStore()
	authorID := primitive.NewObjectID()

	code, _ := invokeAs(t, CreateBook(books), http.MethodPost, bookBody("Dune"), authorID, models.RoleAuthor)
	require.Equal(t, http.StatusCreated, code)
	code, _ = invokeAs(t, CreateBook(books), http.MethodPost, bookBody("Messiah"), primitive.NewObjectID(), models.RoleAuthor)
	require.Equal(t, http.StatusCreated, code)

	code, resp := invoke(t, GetMyBooks(books), http.MethodGet, nil, authorID)
	require.Equal(t, http.StatusOK, code)

	list := resp.Data["books"].([]interface{})
	require.Len(t, list, 1)
	entry := list[0].(map[string]interface{})
	assert.Equal(t, "Dune", entry["title"])
	// Pending submissions are visible to their author.
	assert.Equal(t, false, entry["isApproved"])
}

func TestUpdateBookOwnership(t *testing.T) {
	books := store.NewMemoryBookStore()
	ownerID := primitive.NewObjectID()

	book := seedBook(t, books, "Dune", 200, 0, 5)
	book.CreatedBy = ownerID
	require.NoError(t, books.Update(context.Background(), book))

	param := gin.Param{Key: "bookId", Value: book.ID.Hex()}

	// A different author may not touch it.
	code, resp := invokeAs(t, UpdateBook(books), http.MethodPut, bookBody("Hijacked"),
		primitive.NewObjectID(), models.RoleAuthor, param)
	require.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Not authorized to modify this book", resp.Message)

	// The owner may.
	code, _ = invokeAs(t, UpdateBook(books), http.MethodPut, bookBody("Dune Messiah"),
		ownerID, models.RoleAuthor, param)
	require.Equal(t, http.StatusOK, code)

	// So may an admin who owns nothing.
	code, _ = invokeAs(t, UpdateBook(books), http.MethodPut, bookBody("Children of Dune"),
		primitive.NewObjectID(), models.RoleAdmin, param)
	require.Equal(t, http.StatusOK, code)

	current, err := books.FindByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Children of Dune", current.Title)
}

func TestDeleteBookOwnership(t *testing.T) {
	books := store.NewMemoryBookStore()
	ownerID := primitive.NewObjectID()

	book := seedBook(t, books, "Dune", 200, 0, 5)
	book.CreatedBy = ownerID
	require.NoError(t, books.Update(context.Background(), book))

	param := gin.Param{Key: "bookId", Value: book.ID.Hex()}

	code, _ := invokeAs(t, DeleteBook(books), http.MethodDelete, nil,
		primitive.NewObjectID(), models.RoleAuthor, param)
	require.Equal(t, http.StatusForbidden, code)

	_, err := books.FindByID(context.Background(), book.ID)
	require.NoError(t, err)

	code, _ = invokeAs(t, DeleteBook(books), http.MethodDelete, nil,
		ownerID, models.RoleAuthor, param)
	require.Equal(t, http.StatusOK, code)

	_, err = books.FindByID(context.Background(), book.ID)
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func TestBookSortFieldWhitelist(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "createdAt"},
		{"price", "price"},
		{"averageRating", "averageRating"},
		{"title", "title"},
		{"totalSales", "totalSales"},
		{"$where", "createdAt"},
		{"stock", "createdAt"},
	}
	for _, tt := range tests {
		if got := bookSortField(tt.raw); got != tt.want {
			t.Errorf("bookSortField(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
