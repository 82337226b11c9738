package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecalculateTotals(t *testing.T) {
	cart := Cart{
		Items: []CartItem{
			{Quantity: 2, PriceAtTime: 150},
			{Quantity: 1, PriceAtTime: 99.5},
		},
		// Stale derived values that must be overwritten.
		TotalAmount: 1,
		TotalItems:  1,
	}

	cart.RecalculateTotals()

	if cart.TotalItems != 3 {
		t.Errorf("TotalItems = %d, want 3", cart.TotalItems)
	}
	if cart.TotalAmount != 399.5 {
		t.Errorf("TotalAmount = %v, want 399.5", cart.TotalAmount)
	}
}

func TestRecalculateTotalsEmptyCart(t *testing.T) {
	cart := Cart{Items: []CartItem{}, TotalAmount: 42, TotalItems: 7}

	cart.RecalculateTotals()

	if cart.TotalItems != 0 || cart.TotalAmount != 0 {
		t.Errorf("got totals (%d, %v), want (0, 0)", cart.TotalItems, cart.TotalAmount)
	}
}

func TestCartItemSubtotal(t *testing.T) {
	item := CartItem{Quantity: 2, PriceAtTime: 49.5}
	if got := item.Subtotal(); got != 99 {
		t.Errorf("Subtotal() = %v, want 99", got)
	}
}

func TestItemIndex(t *testing.T) {
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	cart := Cart{Items: []CartItem{{ID: first}, {ID: second}}}

	if got := cart.ItemIndex(second); got != 1 {
		t.Errorf("ItemIndex(second) = %d, want 1", got)
	}
	if got := cart.ItemIndex(primitive.NewObjectID()); got != -1 {
		t.Errorf("ItemIndex(unknown) = %d, want -1", got)
	}
}

func TestItemIndexByBook(t *testing.T) {
	bookID := primitive.NewObjectID()
	cart := Cart{Items: []CartItem{
		{ID: primitive.NewObjectID(), BookID: primitive.NewObjectID()},
		{ID: primitive.NewObjectID(), BookID: bookID},
	}}

	if got := cart.ItemIndexByBook(bookID); got != 1 {
		t.Errorf("ItemIndexByBook = %d, want 1", got)
	}
	if got := cart.ItemIndexByBook(primitive.NewObjectID()); got != -1 {
		t.Errorf("ItemIndexByBook(unknown) = %d, want -1", got)
	}
}
