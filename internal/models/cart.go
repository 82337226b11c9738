package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a single line in a user's cart. PriceAtTime is the price
// captured when the line was added; it is not refreshed afterwards.
type CartItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookID      primitive.ObjectID `bson:"bookId" json:"bookId"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	PriceAtTime float64            `bson:"priceAtTime" json:"priceAtTime"`
	AddedAt     time.Time          `bson:"addedAt" json:"addedAt"`
}

// Subtotal is the line total at the captured price.
func (i CartItem) Subtotal() float64 {
	return i.PriceAtTime * float64(i.Quantity)
}

// Cart is the user's pending selection, one document per user.
// TotalAmount and TotalItems are derived and recomputed on every save.
type Cart struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Items       []CartItem         `bson:"items" json:"items"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	TotalItems  int                `bson:"totalItems" json:"totalItems"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RecalculateTotals recomputes the derived totals from the items. The cart
// store calls this before every save so the persisted totals never drift.
func (c *Cart) RecalculateTotals() {
	totalItems := 0
	totalAmount := 0.0
	for _, item := range c.Items {
		totalItems += item.Quantity
		totalAmount += item.Subtotal()
	}
	c.TotalItems = totalItems
	c.TotalAmount = totalAmount
}

// ItemIndex returns the position of the item with the given id, or -1.
func (c *Cart) ItemIndex(itemID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// ItemIndexByBook returns the position of the line holding the given book, or -1.
func (c *Cart) ItemIndexByBook(bookID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.BookID == bookID {
			return i
		}
	}
	return -1
}
