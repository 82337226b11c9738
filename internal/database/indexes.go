package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureBookIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "isbn", Value: 1}},
			Options: options.Index().SetName("isbn_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "author", Value: 1}, {Key: "price", Value: 1}},
			Options: options.Index().SetName("catalog_filters"),
		},
		{
			Keys:    bson.D{{Key: "isApproved", Value: 1}, {Key: "isFeatured", Value: 1}},
			Options: options.Index().SetName("featured_listing"),
		},
	}

	log.Println("EnsureBookIndexes: creating book indexes")
	_, err := db.Collection("books").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureBookIndexes: book index error:", err)
		return err
	}
	return nil
}

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := db.Collection("users").Indexes().CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	return nil
}

func EnsureCartIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_unique").SetUnique(true),
	}

	log.Println("EnsureCartIndexes: creating userId_unique index")
	_, err := db.Collection("carts").Indexes().CreateOne(ctx, userIndex)
	if err != nil {
		log.Println("EnsureCartIndexes: cart index error:", err)
		return err
	}
	return nil
}

// EnsureOrderIndexes creates the unique order number index that backs the
// retry-on-duplicate behaviour of order creation.
func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetName("orderNumber_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_orders"),
		},
		{
			Keys:    bson.D{{Key: "orderStatus", Value: 1}},
			Options: options.Index().SetName("orderStatus_index"),
		},
		{
			Keys:    bson.D{{Key: "paymentStatus", Value: 1}},
			Options: options.Index().SetName("paymentStatus_index"),
		},
	}

	log.Println("EnsureOrderIndexes: creating order indexes")
	_, err := db.Collection("orders").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureOrderIndexes: order index error:", err)
		return err
	}
	return nil
}
