package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookstore/internal/models"
)

type mongoCartStore struct {
	collection *mongo.Collection
}

// NewMongoCartStore returns a CartStore backed by the carts collection.
func NewMongoCartStore(db *mongo.Database) CartStore {
	return &mongoCartStore{collection: db.Collection("carts")}
}

func (s *mongoCartStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := s.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	return &cart, nil
}

// Save upserts the whole cart document keyed by user. Totals are recomputed
// here so a cart can never be persisted with stale derived fields.
func (s *mongoCartStore) Save(ctx context.Context, cart *models.Cart) error {
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

	filter := bson.M{"userId": cart.UserID}
	update := bson.M{"$set": bson.M{
		"userId":      cart.UserID,
		"items":       cart.Items,
		"totalAmount": cart.TotalAmount,
		"totalItems":  cart.TotalItems,
		"createdAt":   cart.CreatedAt,
		"updatedAt":   cart.UpdatedAt,
	}}
	opts := options.Update().SetUpsert(true)

	_, err := s.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Clear empties the items of the user's cart. A missing cart is a no-op.
func (s *mongoCartStore) Clear(ctx context.Context, userID primitive.ObjectID) error {
	filter := bson.M{"userId": userID}
	update := bson.M{"$set": bson.M{
		"items":       []models.CartItem{},
		"totalAmount": 0.0,
		"totalItems":  0,
		"updatedAt":   time.Now(),
	}}

	_, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
