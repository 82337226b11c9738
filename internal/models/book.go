package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is embedded in the book document, one per user.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Rating    int                `bson:"rating" json:"rating"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Author        string             `bson:"author" json:"author"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	ISBN          string             `bson:"isbn" json:"isbn"`
	Price         float64            `bson:"price" json:"price"`
	Discount      float64            `bson:"discount" json:"discount"`
	Pages         int                `bson:"pages,omitempty" json:"pages,omitempty"`
	Category      string             `bson:"category" json:"category"`
	CoverImage    string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	Stock         int                `bson:"stock" json:"stock"`
	AverageRating float64            `bson:"averageRating" json:"averageRating"`
	TotalReviews  int                `bson:"totalReviews" json:"totalReviews"`
	TotalSales    int                `bson:"totalSales" json:"totalSales"`
	IsFeatured    bool               `bson:"isFeatured" json:"isFeatured"`
	IsBestseller  bool               `bson:"isBestseller" json:"isBestseller"`
	IsApproved    bool               `bson:"isApproved" json:"isApproved"`
	CreatedBy     primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	Reviews       []Review           `bson:"reviews,omitempty" json:"reviews,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DiscountedPrice returns the price the customer actually pays.
func (b *Book) DiscountedPrice() float64 {
	if b.Discount > 0 && b.Discount <= 100 {
		return b.Price * (1 - b.Discount/100)
	}
	return b.Price
}

// InStock reports whether at least the requested quantity is available.
func (b *Book) InStock(quantity int) bool {
	return b.Stock >= quantity
}
