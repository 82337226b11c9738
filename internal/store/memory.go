package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/models"
)

// In-memory implementations of the store interfaces, guarded by a mutex.
// They mirror the mongo semantics closely enough to drive the handler and
// stock-manager test suites, including the conditional stock decrement.

type MemoryBookStore struct {
	mu    sync.Mutex
	books map[primitive.ObjectID]*models.Book
}

func NewMemoryBookStore() *MemoryBookStore {
	return &MemoryBookStore{books: make(map[primitive.ObjectID]*models.Book)}
}

func (s *MemoryBookStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	copied := *book
	return &copied, nil
}

func (s *MemoryBookStore) List(_ context.Context, filter BookFilter) ([]models.Book, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Book, 0)
	for _, book := range s.books {
		if !book.IsApproved {
			continue
		}
		if filter.Category != "" && book.Category != filter.Category {
			continue
		}
		if filter.Author != "" && !strings.Contains(strings.ToLower(book.Author), strings.ToLower(filter.Author)) {
			continue
		}
		price := book.DiscountedPrice()
		if price < filter.MinPrice {
			continue
		}
		if filter.MaxPrice > 0 && price > filter.MaxPrice {
			continue
		}
		if filter.MinRating > 0 && book.AverageRating < filter.MinRating {
			continue
		}
		if filter.MaxRating > 0 && book.AverageRating > filter.MaxRating {
			continue
		}
		matched = append(matched, *book)
	}

	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch filter.SortBy {
		case "price":
			less = matched[i].DiscountedPrice() < matched[j].DiscountedPrice()
		case "averageRating":
			less = matched[i].AverageRating < matched[j].AverageRating
		case "title":
			less = matched[i].Title < matched[j].Title
		default:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if filter.SortDesc {
			return !less
		}
		return less
	})

	total := int64(len(matched))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (s *MemoryBookStore) ListByCreator(_ context.Context, creatorID primitive.ObjectID, page, limit int64) ([]models.Book, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Book, 0)
	for _, book := range s.books {
		if book.CreatedBy == creatorID {
			matched = append(matched, *book)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (s *MemoryBookStore) Featured(_ context.Context, limit int64) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	featured := make([]models.Book, 0)
	for _, book := range s.books {
		if book.IsApproved && book.IsFeatured {
			featured = append(featured, *book)
		}
	}
	sort.Slice(featured, func(i, j int) bool {
		return featured[i].AverageRating > featured[j].AverageRating
	})
	if limit > 0 && int64(len(featured)) > limit {
		featured = featured[:limit]
	}
	return featured, nil
}

func (s *MemoryBookStore) Insert(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if book.ID.IsZero() {
		book.ID = primitive.NewObjectID()
	}
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now
	copied := *book
	s.books[book.ID] = &copied
	return nil
}

func (s *MemoryBookStore) Update(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[book.ID]; !ok {
		return ErrBookNotFound
	}
	book.UpdatedAt = time.Now()
	copied := *book
	s.books[book.ID] = &copied
	return nil
}

func (s *MemoryBookStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return ErrBookNotFound
	}
	delete(s.books, id)
	return nil
}

// DecrementStock applies the same precondition as the mongo implementation:
// the check and the decrement happen under one lock, never as two steps.
func (s *MemoryBookStore) DecrementStock(_ context.Context, id primitive.ObjectID, quantity int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[id]
	if !ok || book.Stock < quantity {
		return 0, ErrInsufficientStock
	}
	book.Stock -= quantity
	book.TotalSales += quantity
	return book.Stock, nil
}

type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID]*models.Cart
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[primitive.ObjectID]*models.Cart)}
}

func (s *MemoryCartStore) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (s *MemoryCartStore) Save(_ context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	cart.RecalculateTotals()
	for i := range cart.Items {
		if cart.Items[i].ID.IsZero() {
			cart.Items[i].ID = primitive.NewObjectID()
		}
	}

	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	s.carts[cart.UserID] = &copied
	return nil
}

func (s *MemoryCartStore) Clear(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		return nil
	}
	cart.Items = []models.CartItem{}
	cart.RecalculateTotals()
	cart.UpdatedAt = time.Now()
	return nil
}

type MemoryOrderStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (s *MemoryOrderStore) Insert(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orders {
		if existing.OrderNumber == order.OrderNumber {
			return ErrDuplicateOrderNumber
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	copied := *order
	copied.Items = append([]models.OrderItem(nil), order.Items...)
	s.orders[order.ID] = &copied
	return nil
}

func (s *MemoryOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := *order
	copied.Items = append([]models.OrderItem(nil), order.Items...)
	return &copied, nil
}

func (s *MemoryOrderStore) FindByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	order, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *MemoryOrderStore) list(match func(*models.Order) bool, filter OrderFilter) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Order, 0)
	for _, order := range s.orders {
		if !match(order) {
			continue
		}
		if filter.Status != "" && order.OrderStatus != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && order.PaymentStatus != filter.PaymentStatus {
			continue
		}
		matched = append(matched, *order)
	}

	sort.Slice(matched, func(i, j int) bool {
		less := matched[i].CreatedAt.Before(matched[j].CreatedAt)
		if filter.SortDesc {
			return !less
		}
		return less
	})

	total := int64(len(matched))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (s *MemoryOrderStore) ListByUser(_ context.Context, userID primitive.ObjectID, filter OrderFilter) ([]models.Order, int64, error) {
	return s.list(func(o *models.Order) bool { return o.UserID == userID }, filter)
}

func (s *MemoryOrderStore) ListAll(_ context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	return s.list(func(*models.Order) bool { return true }, filter)
}

func (s *MemoryOrderStore) Update(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	order.UpdatedAt = time.Now()
	copied := *order
	copied.Items = append([]models.OrderItem(nil), order.Items...)
	s.orders[order.ID] = &copied
	return nil
}

type MemoryUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (s *MemoryUserStore) Insert(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrEmailTaken
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Wishlist == nil {
		user.Wishlist = []primitive.ObjectID{}
	}

	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	copied.Wishlist = append([]primitive.ObjectID(nil), user.Wishlist...)
	return &copied, nil
}

func (s *MemoryUserStore) AddToWishlist(_ context.Context, userID, bookID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	for _, id := range user.Wishlist {
		if id == bookID {
			return nil
		}
	}
	user.Wishlist = append(user.Wishlist, bookID)
	user.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryUserStore) RemoveFromWishlist(_ context.Context, userID, bookID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	kept := user.Wishlist[:0]
	for _, id := range user.Wishlist {
		if id != bookID {
			kept = append(kept, id)
		}
	}
	user.Wishlist = kept
	user.UpdatedAt = time.Now()
	return nil
}
