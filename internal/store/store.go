package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/models"
)

var (
	ErrBookNotFound         = errors.New("book not found")
	ErrCartNotFound         = errors.New("cart not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	ErrEmailTaken           = errors.New("email already registered")
)

// BookFilter narrows and pages catalog listings. Price bounds apply to the
// discounted price, not the list price.
type BookFilter struct {
	Category  string
	Author    string
	MinPrice  float64
	MaxPrice  float64
	MinRating float64
	MaxRating float64
	SortBy    string
	SortDesc  bool
	Page      int64
	Limit     int64
}

// OrderFilter narrows and pages order listings.
type OrderFilter struct {
	Status        string
	PaymentStatus string
	SortBy        string
	SortDesc      bool
	Page          int64
	Limit         int64
}

// BookStore is the catalog collaborator. DecrementStock is the only mutation
// the checkout pipeline performs on the catalog: a single conditional write
// that succeeds only while stock covers the requested quantity.
type BookStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error)
	ListByCreator(ctx context.Context, creatorID primitive.ObjectID, page, limit int64) ([]models.Book, int64, error)
	Featured(ctx context.Context, limit int64) ([]models.Book, error)
	Insert(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (int, error)
}

// CartStore persists one cart document per user. Save recalculates the
// derived totals before writing so they can never drift from the items.
type CartStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

// OrderStore persists immutable order snapshots. Insert reports
// ErrDuplicateOrderNumber when the generated order number collides, so the
// caller can regenerate and retry.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, filter OrderFilter) ([]models.Order, int64, error)
	ListAll(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	Update(ctx context.Context, order *models.Order) error
}

// UserStore resolves accounts and owns the wishlist.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	AddToWishlist(ctx context.Context, userID, bookID primitive.ObjectID) error
	RemoveFromWishlist(ctx context.Context, userID, bookID primitive.ObjectID) error
}
