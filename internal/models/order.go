package models

import (
	"fmt"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodPaypal         = "paypal"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"

	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ValidPaymentMethod reports whether m is one of the supported methods.
func ValidPaymentMethod(m string) bool {
	return m == PaymentMethodCashOnDelivery || m == PaymentMethodPaypal
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Address is embedded in orders for both shipping and billing.
type Address struct {
	FirstName string `bson:"firstName" json:"firstName" binding:"required"`
	LastName  string `bson:"lastName" json:"lastName" binding:"required"`
	Email     string `bson:"email" json:"email" binding:"required"`
	Phone     string `bson:"phone" json:"phone" binding:"required"`
	Address   string `bson:"address" json:"address" binding:"required"`
	City      string `bson:"city" json:"city" binding:"required"`
	State     string `bson:"state" json:"state" binding:"required"`
	Country   string `bson:"country" json:"country"`
}

// OrderItem is a frozen snapshot of a cart line. It never changes after the
// order is created, regardless of later catalog edits.
type OrderItem struct {
	BookID      primitive.ObjectID `bson:"bookId" json:"bookId"`
	Title       string             `bson:"title" json:"title"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	PriceAtTime float64            `bson:"priceAtTime" json:"priceAtTime"`
	Subtotal    float64            `bson:"subtotal" json:"subtotal"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress Address            `bson:"shippingAddress" json:"shippingAddress"`
	BillingAddress  Address            `bson:"billingAddress" json:"billingAddress"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	ShippingCost    float64            `bson:"shippingCost" json:"shippingCost"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus   string             `bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus     string             `bson:"orderStatus" json:"orderStatus"`
	PaymentID       string             `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	TrackingNumber  string             `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewOrderNumber generates a human readable order number: ORD-YYYYMMDD-XXXXX.
// The random suffix is not unique by construction; the orders collection
// carries a unique index and callers retry on a duplicate key.
func NewOrderNumber() string {
	now := time.Now()
	return fmt.Sprintf("ORD-%s-%05d", now.Format("20060102"), rand.Intn(100000))
}
