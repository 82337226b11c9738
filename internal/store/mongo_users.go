package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"bookstore/internal/models"
)

type mongoUserStore struct {
	collection *mongo.Collection
}

// NewMongoUserStore returns a UserStore backed by the users collection.
func NewMongoUserStore(db *mongo.Database) UserStore {
	return &mongoUserStore{collection: db.Collection("users")}
}

func (s *mongoUserStore) Insert(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Wishlist == nil {
		user.Wishlist = []primitive.ObjectID{}
	}

	res, err := s.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (s *mongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *mongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *mongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoUserStore) AddToWishlist(ctx context.Context, userID, bookID primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{"wishlist": bookID},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *mongoUserStore) RemoveFromWishlist(ctx context.Context, userID, bookID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"wishlist": bookID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
