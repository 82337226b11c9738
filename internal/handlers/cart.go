package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/config"
	"bookstore/internal/models"
	"bookstore/internal/store"
)

type addToCartRequest struct {
	BookID string `json:"bookId" binding:"required"`
	// Pointer so an omitted quantity (defaults to 1) is distinguishable
	// from an explicit zero, which is rejected.
	Quantity *int `json:"quantity"`
}

type updateCartItemRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type cartBookView struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Price      float64 `json:"price"`
	CoverImage string  `json:"coverImage,omitempty"`
	Stock      int     `json:"stock"`
}

type cartItemView struct {
	ID             string        `json:"id"`
	Book           *cartBookView `json:"book"`
	Quantity       int           `json:"quantity"`
	PriceAtTime    float64       `json:"priceAtTime"`
	Subtotal       float64       `json:"subtotal"`
	IsAvailable    bool          `json:"isAvailable"`
	StockStatus    string        `json:"stockStatus"`
	AvailableStock int           `json:"availableStock"`
}

func cartData(cart *models.Cart) gin.H {
	return gin.H{
		"items":       cart.Items,
		"totalAmount": cart.TotalAmount,
		"totalItems":  cart.TotalItems,
	}
}

func emptyCartData() gin.H {
	return gin.H{
		"items":       []models.CartItem{},
		"totalAmount": 0,
		"totalItems":  0,
	}
}

// GetCart returns the cart with each line classified against live stock.
// The classification is informational only; it never mutates the cart.
func GetCart(books store.BookStore, carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrCartNotFound) {
				respondData(c, http.StatusOK, "", emptyCartData())
				return
			}
			respondServerError(c, route, "Error fetching cart", err)
			return
		}

		items := make([]cartItemView, 0, len(cart.Items))
		for _, item := range cart.Items {
			view := cartItemView{
				ID:          item.ID.Hex(),
				Quantity:    item.Quantity,
				PriceAtTime: item.PriceAtTime,
				Subtotal:    item.Subtotal(),
				StockStatus: stockStatusOut,
			}

			book, err := books.FindByID(ctx, item.BookID)
			if err == nil {
				view.Book = &cartBookView{
					ID:         book.ID.Hex(),
					Title:      book.Title,
					Author:     book.Author,
					Price:      book.DiscountedPrice(),
					CoverImage: book.CoverImage,
					Stock:      book.Stock,
				}
				view.IsAvailable = book.Stock >= item.Quantity
				view.StockStatus = stockStatus(book.Stock, config.AppEnv.LowStockThreshold)
				view.AvailableStock = book.Stock
			} else if !errors.Is(err, store.ErrBookNotFound) {
				respondServerError(c, route, "Error fetching cart", err)
				return
			}

			items = append(items, view)
		}

		respondData(c, http.StatusOK, "", gin.H{
			"items":       items,
			"totalAmount": cart.TotalAmount,
			"totalItems":  cart.TotalItems,
		})
	}
}

// AddToCart appends a line or bumps an existing one, enforcing the per-book
// stock cap and the cart-wide ceiling. The book's current discounted price
// is captured as priceAtTime.
func AddToCart(books store.BookStore, carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/add"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		if quantity <= 0 {
			respondError(c, http.StatusBadRequest, "Quantity must be greater than 0")
			return
		}

		bookID, err := primitive.ObjectIDFromHex(req.BookID)
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
			respondServerError(c, route, "Error adding item to cart", err)
			return
		}

		cart, err := carts.FindByUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, store.ErrCartNotFound) {
				respondServerError(c, route, "Error adding item to cart", err)
				return
			}
			// Lazily created on first add.
			cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
		}

		existingIdx := cart.ItemIndexByBook(bookID)
		if err := checkCartAdd(cart, existingIdx, book, quantity, config.AppEnv.CartMaxItems); err != nil {
			respondCartRuleError(c, err)
			return
		}

		if existingIdx > -1 {
			cart.Items[existingIdx].Quantity += quantity
		} else {
			cart.Items = append(cart.Items, models.CartItem{
				BookID:      bookID,
				Quantity:    quantity,
				PriceAtTime: book.DiscountedPrice(),
				AddedAt:     time.Now(),
			})
		}

		if err := carts.Save(ctx, cart); err != nil {
			respondServerError(c, route, "Error adding item to cart", err)
			return
		}

		log.Printf("[%s] user %s added %d x %s", route, userID.Hex(), quantity, book.Title)
		respondData(c, http.StatusOK, "Item added to cart", cartData(cart))
	}
}

// UpdateCartItem sets an existing line to an absolute quantity, with the
// same stock and ceiling checks computed excluding the line being updated.
func UpdateCartItem(books store.BookStore, carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/update"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.Quantity <= 0 {
			respondError(c, http.StatusBadRequest, "Quantity must be greater than 0")
			return
		}

		itemID, err := primitive.ObjectIDFromHex(req.ItemID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid itemId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrCartNotFound) {
				respondError(c, http.StatusNotFound, "Cart not found")
				return
			}
			respondServerError(c, route, "Error updating cart", err)
			return
		}

		idx := cart.ItemIndex(itemID)
		if idx == -1 {
			respondError(c, http.StatusNotFound, "Item not found in cart")
			return
		}

		book, err := books.FindByID(ctx, cart.Items[idx].BookID)
		if err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				respondError(c, http.StatusNotFound, "Book not found")
				return
			}
			respondServerError(c, route, "Error updating cart", err)
			return
		}

		if err := checkCartUpdate(cart, idx, book, req.Quantity, config.AppEnv.CartMaxItems); err != nil {
			respondCartRuleError(c, err)
			return
		}

		cart.Items[idx].Quantity = req.Quantity

		if err := carts.Save(ctx, cart); err != nil {
			respondServerError(c, route, "Error updating cart", err)
			return
		}

		respondData(c, http.StatusOK, "Cart updated", cartData(cart))
	}
}

// RemoveFromCart deletes a single line unconditionally.
func RemoveFromCart(carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/remove"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid itemId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrCartNotFound) {
				respondError(c, http.StatusNotFound, "Cart not found")
				return
			}
			respondServerError(c, route, "Error removing item from cart", err)
			return
		}

		idx := cart.ItemIndex(itemID)
		if idx == -1 {
			respondError(c, http.StatusNotFound, "Item not found in cart")
			return
		}

		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

		if err := carts.Save(ctx, cart); err != nil {
			respondServerError(c, route, "Error removing item from cart", err)
			return
		}

		respondData(c, http.StatusOK, "Item removed from cart", cartData(cart))
	}
}

// ClearCart empties the cart. Clearing an absent cart succeeds.
func ClearCart(carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/clear"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := carts.Clear(ctx, userID); err != nil {
			respondServerError(c, route, "Error clearing cart", err)
			return
		}

		respondData(c, http.StatusOK, "Cart cleared", emptyCartData())
	}
}

// respondCartRuleError maps the typed rule errors onto the envelope the
// clients rely on, with the counts spelled out.
func respondCartRuleError(c *gin.Context, err error) {
	var stockErr stockExceededError
	if errors.As(err, &stockErr) {
		respondErrorData(c, http.StatusBadRequest, stockErr.Error(), gin.H{
			"availableStock":    stockErr.Available,
			"currentInCart":     stockErr.InCart,
			"requestedQuantity": stockErr.Requested,
		})
		return
	}

	var limitErr cartLimitError
	if errors.As(err, &limitErr) {
		respondErrorData(c, http.StatusBadRequest, limitErr.Error(), gin.H{
			"currentTotal":      limitErr.CurrentTotal,
			"requestedQuantity": limitErr.Requested,
			"maxAllowed":        limitErr.MaxAllowed,
		})
		return
	}

	respondError(c, http.StatusBadRequest, err.Error())
}
