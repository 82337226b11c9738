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

func TestAddToCartCreatesCartLazily(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()
	book := seedBook(t, books, "Dune", 200, 0, 10)

	code, resp := invoke(t, AddToCart(books, carts), http.MethodPost,
		gin.H{"bookId": book.ID.Hex(), "quantity": 2}, userID)

	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	cart, err := carts.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 400.0, cart.TotalAmount)
	assert.Equal(t, 2, cart.TotalItems)
}

func TestAddToCartCapturesDiscountedPrice(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()
	book := seedBook(t, books, "Dune", 200, 25, 10)

	code, _ := invoke(t, AddToCart(books, carts), http.MethodPost,
		gin.H{"bookId": book.ID.Hex(), "quantity": 1}, userID)
	require.Equal(t, http.StatusOK, code)

	cart, err := carts.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 150.0, cart.Items[0].PriceAtTime)

	// Raising the price afterwards must not touch the captured line price.
	book.Price = 500
	require.NoError(t, books.Update(context.Background(), book))

	cart, err = carts.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, cart.Items[0].PriceAtTime)
}

func TestAddToCartMergesExistingLine(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()
	book := seedBook(t, books, "Dune", 100, 0, 10)

	for i := 0; i < 2; i++ {
		code, _ := invoke(t, AddToCart(books, carts), http.MethodPost,
			gin.H{"bookId": book.ID.Hex(), "quantity": 2}, userID)
		require.Equal(t, http.StatusOK, code)
	}

	cart, err := carts.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)
}

func TestAddToCartRejectsStockExceeded(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()
	book := seedBook(t, books, "Dune", 100, 0, 3)

	code, _ := invoke(t, AddToCart(books, carts), http.MethodPost,
		gin.H{"bookId": book.ID.Hex(), "quantity": 2}, userID)
	require.Equal(t, http.StatusOK, code)

	code, resp := invoke(t, AddToCart(books, carts), http.MethodPost,
		gin.H{"bookId": book.ID.Hex(), "quantity": 2}, userID)

	require.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
	assert.Equal(t, float64(3), resp.Data["availableStock"])
	assert.Equal(t, float64(2), resp.Data["currentInCart"])
	assert.Equal(t, float64(2), resp.Data["requestedQuantity"])

	// The failed add must not have changed the cart.
	cart, err := carts.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestAddToCartEnforcesCeiling(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()
	first := seedBook(t, books, "Dune", 100, 0, 50)
	second := seedBook(t, books, "Foundation", 100, 0, 50)

	code, _ := invoke(t, AddToCart(books, carts), http.MethodPost,
		gin.H{"bookId": first.ID.Hex(), "quantity": 9}, userID)
	require.Equal(t, http.StatusOK, code)

	code, resp := invoke(t, AddToCart(books, carts), http.MethodPost,
		gin.H{"bookId": second.ID.Hex(), "quantity": 2}, userID)

	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, float64(10), resp.Data["maxAllowed"])
	assert.Equal(t, float64(9), resp.Data["currentTotal"])
}

func TestAddToCartDefaultsQuantityToOne(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()
	book := seedBook(t, books, "Dune", 100, 0, 10)

	code, _ := invoke(t, AddToCart(books, carts), http.MethodPost,
		gin.H{"bookId": book.ID.Hex()}, userID)
	require.Equal(t, http.StatusOK, code)

	cart, err := carts.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestAddToCartRejectsNonPositiveQuantity(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()
	book := seedBook(t, books, "Dune", 100, 0, 10)

	// An explicit zero is not the same as an omitted quantity and must fail.
	for _, quantity := range []int{0, -1} {
		code, resp := invoke(t, AddToCart(books, carts), http.MethodPost,
			gin.H{"bookId": book.ID.Hex(), "quantity": quantity}, userID)

		require.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Quantity must be greater than 0", resp.Message)
	}

	// Nothing was created by the rejected adds.
	_, err := carts.FindByUser(context.Background(), userID)
	assert.ErrorIs(t, err, store.ErrCartNotFound)
}

func TestAddToCartUnknownBook(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()

	code, resp := invoke(t, AddToCart(books, carts), http.MethodPost,
		gin.H{"bookId": primitive.NewObjectID().Hex(), "quantity": 1}, primitive.NewObjectID())

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Book not found", resp.Message)
}

func TestUpdateCartItemSetsAbsoluteQuantity(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()
	book := seedBook(t, books, "Dune", 100, 0, 10)

	cart := seedCart(t, carts, userID, models.CartItem{
		BookID: book.ID, Quantity: 2, PriceAtTime: 100,
	})
	itemID := cart.Items[0].ID

	code, _ := invoke(t, UpdateCartItem(books, carts), http.MethodPut,
		gin.H{"itemId": itemID.Hex(), "quantity": 5}, userID)
	require.Equal(t, http.StatusOK, code)

	updated, err := carts.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Items[0].Quantity)
	assert.Equal(t, 500.0, updated.TotalAmount)
}

func TestUpdateCartItemRejectsZeroQuantity(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()

	code, resp := invoke(t, UpdateCartItem(books, carts), http.MethodPut,
		gin.H{"itemId": primitive.NewObjectID().Hex(), "quantity": -1}, primitive.NewObjectID())

	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
}

func TestRemoveFromCart(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()
	first := seedBook(t, books, "Dune", 100, 0, 10)
	second := seedBook(t, books, "Foundation", 50, 0, 10)

	cart := seedCart(t, carts, userID,
		models.CartItem{BookID: first.ID, Quantity: 1, PriceAtTime: 100},
		models.CartItem{BookID: second.ID, Quantity: 2, PriceAtTime: 50},
	)

	code, _ := invoke(t, RemoveFromCart(carts), http.MethodDelete, nil, userID,
		gin.Param{Key: "itemId", Value: cart.Items[0].ID.Hex()})
	require.Equal(t, http.StatusOK, code)

	updated, err := carts.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, second.ID, updated.Items[0].BookID)
	assert.Equal(t, 100.0, updated.TotalAmount)
}

func TestClearCartOnMissingCartSucceeds(t *testing.T) {
	carts := store.NewMemoryCartStore()

	code, resp := invoke(t, ClearCart(carts), http.MethodDelete, nil, primitive.NewObjectID())

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
}

func TestGetCartClassifiesAvailability(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()
	plenty := seedBook(t, books, "Dune", 100, 0, 20)
	scarce := seedBook(t, books, "Foundation", 50, 0, 1)

	seedCart(t, carts, userID,
		models.CartItem{BookID: plenty.ID, Quantity: 2, PriceAtTime: 100},
		models.CartItem{BookID: scarce.ID, Quantity: 3, PriceAtTime: 50},
	)

	code, resp := invoke(t, GetCart(books, carts), http.MethodGet, nil, userID)
	require.Equal(t, http.StatusOK, code)

	items, ok := resp.Data["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 2)

	first := items[0].(map[string]interface{})
	assert.Equal(t, true, first["isAvailable"])
	assert.Equal(t, "in_stock", first["stockStatus"])

	second := items[1].(map[string]interface{})
	assert.Equal(t, false, second["isAvailable"])
	assert.Equal(t, "low_stock", second["stockStatus"])
}

func TestGetCartMissingBookTolerated(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()
	userID := primitive.NewObjectID()

	seedCart(t, carts, userID,
		models.CartItem{BookID: primitive.NewObjectID(), Quantity: 1, PriceAtTime: 100},
	)

	code, resp := invoke(t, GetCart(books, carts), http.MethodGet, nil, userID)
	require.Equal(t, http.StatusOK, code)

	items := resp.Data["items"].([]interface{})
	require.Len(t, items, 1)
	line := items[0].(map[string]interface{})
	assert.Equal(t, false, line["isAvailable"])
	assert.Equal(t, "out_of_stock", line["stockStatus"])
	assert.Nil(t, line["book"])
}

func TestGetCartWithoutCartReturnsEmpty(t *testing.T) {
	books := store.NewMemoryBookStore()
	carts := store.NewMemoryCartStore()

	code, resp := invoke(t, GetCart(books, carts), http.MethodGet, nil, primitive.NewObjectID())

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), resp.Data["totalItems"])
}
