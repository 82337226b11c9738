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

type mongoOrderStore struct {
	collection *mongo.Collection
}

// NewMongoOrderStore returns an OrderStore backed by the orders collection.
func NewMongoOrderStore(db *mongo.Database) OrderStore {
	return &mongoOrderStore{collection: db.Collection("orders")}
}

func (s *mongoOrderStore) Insert(ctx context.Context, order *models.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	res, err := s.collection.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (s *mongoOrderStore) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	err := s.collection.FindOne(ctx, filter).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

func (s *mongoOrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoOrderStore) FindByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (s *mongoOrderStore) list(ctx context.Context, match bson.M, filter OrderFilter) ([]models.Order, int64, error) {
	if filter.Status != "" {
		match["orderStatus"] = filter.Status
	}
	if filter.PaymentStatus != "" {
		match["paymentStatus"] = filter.PaymentStatus
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	sortOrder := 1
	if filter.SortDesc {
		sortOrder = -1
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortBy, Value: sortOrder}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, match, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}

	total, err := s.collection.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return orders, total, nil
}

func (s *mongoOrderStore) ListByUser(ctx context.Context, userID primitive.ObjectID, filter OrderFilter) ([]models.Order, int64, error) {
	return s.list(ctx, bson.M{"userId": userID}, filter)
}

func (s *mongoOrderStore) ListAll(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	return s.list(ctx, bson.M{}, filter)
}

func (s *mongoOrderStore) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()

	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}
