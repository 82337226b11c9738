package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser   = "user"
	RoleAuthor = "author"
	RoleAdmin  = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAuthor || r == RoleAdmin
}

// User represents the application user account.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"passwordHash" json:"-"`
	Name         string               `bson:"name" json:"name"`
	Role         string               `bson:"role" json:"role"`
	Wishlist     []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}
