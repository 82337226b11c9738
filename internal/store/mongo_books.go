package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookstore/internal/models"
)

type mongoBookStore struct {
	collection *mongo.Collection
}

// NewMongoBookStore returns a BookStore backed by the books collection.
func NewMongoBookStore(db *mongo.Database) BookStore {
	return &mongoBookStore{collection: db.Collection("books")}
}

func (s *mongoBookStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to find book: %w", err)
	}
	return &book, nil
}

// discountedPriceStage computes the effective price so listings can filter
// and sort on what the customer actually pays.
func discountedPriceStage() bson.D {
	return bson.D{{Key: "$addFields", Value: bson.M{
		"discountedPrice": bson.M{
			"$cond": bson.A{
				bson.M{"$gt": bson.A{"$discount", 0}},
				bson.M{"$multiply": bson.A{
					"$price",
					bson.M{"$subtract": bson.A{1, bson.M{"$divide": bson.A{"$discount", 100}}}},
				}},
				"$price",
			},
		},
	}}}
}

func (s *mongoBookStore) listMatch(filter BookFilter) bson.M {
	match := bson.M{"isApproved": true}
	if filter.Category != "" {
		match["category"] = filter.Category
	}
	if filter.Author != "" {
		match["author"] = bson.M{"$regex": filter.Author, "$options": "i"}
	}

	maxPrice := filter.MaxPrice
	if maxPrice <= 0 {
		maxPrice = math.MaxFloat64
	}
	match["discountedPrice"] = bson.M{"$gte": filter.MinPrice, "$lte": maxPrice}

	if filter.MinRating > 0 || filter.MaxRating > 0 {
		maxRating := filter.MaxRating
		if maxRating <= 0 {
			maxRating = 5
		}
		match["averageRating"] = bson.M{"$gte": filter.MinRating, "$lte": maxRating}
	}
	return match
}

func (s *mongoBookStore) List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error) {
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
		limit = 20
	}

	match := s.listMatch(filter)

	pipeline := mongo.Pipeline{
		discountedPriceStage(),
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: sortBy, Value: sortOrder}}}},
		bson.D{{Key: "$skip", Value: (page - 1) * limit}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	defer cursor.Close(ctx)

	books := make([]models.Book, 0)
	if err := cursor.All(ctx, &books); err != nil {
		return nil, 0, fmt.Errorf("failed to decode books: %w", err)
	}

	countPipeline := mongo.Pipeline{
		discountedPriceStage(),
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$count", Value: "total"}},
	}
	countCursor, err := s.collection.Aggregate(ctx, countPipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}
	defer countCursor.Close(ctx)

	var counts []struct {
		Total int64 `bson:"total"`
	}
	if err := countCursor.All(ctx, &counts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode book count: %w", err)
	}
	total := int64(0)
	if len(counts) > 0 {
		total = counts[0].Total
	}

	return books, total, nil
}

// ListByCreator returns the catalog entries a user submitted, approved or
// not, newest first.
func (s *mongoBookStore) ListByCreator(ctx context.Context, creatorID primitive.ObjectID, page, limit int64) ([]models.Book, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	match := bson.M{"createdBy": creatorID}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, match, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books by creator: %w", err)
	}
	defer cursor.Close(ctx)

	books := make([]models.Book, 0)
	if err := cursor.All(ctx, &books); err != nil {
		return nil, 0, fmt.Errorf("failed to decode books: %w", err)
	}

	total, err := s.collection.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	return books, total, nil
}

func (s *mongoBookStore) Featured(ctx context.Context, limit int64) ([]models.Book, error) {
	if limit < 1 {
		limit = 10
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "averageRating", Value: -1}, {Key: "totalSales", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, bson.M{"isApproved": true, "isFeatured": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find featured books: %w", err)
	}
	defer cursor.Close(ctx)

	books := make([]models.Book, 0)
	if err := cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("failed to decode featured books: %w", err)
	}
	return books, nil
}

func (s *mongoBookStore) Insert(ctx context.Context, book *models.Book) error {
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now

	res, err := s.collection.InsertOne(ctx, book)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		book.ID = id
	}
	return nil
}

func (s *mongoBookStore) Update(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now()

	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": book.ID}, book)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (s *mongoBookStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrBookNotFound
	}
	return nil
}

// DecrementStock reduces the stock by quantity in a single conditional write.
// The filter guards the decrement, so two concurrent payments for the last
// copies can never drive stock negative: the loser simply matches nothing.
func (s *mongoBookStore) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (int, error) {
	filter := bson.M{
		"_id":   id,
		"stock": bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity, "totalSales": quantity},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Book
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrInsufficientStock
		}
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}
	return updated.Stock, nil
}
