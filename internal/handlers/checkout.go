package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/config"
	"bookstore/internal/models"
	"bookstore/internal/stock"
	"bookstore/internal/store"
)

type processCheckoutRequest struct {
	ShippingAddress models.Address  `json:"shippingAddress" binding:"required"`
	BillingAddress  *models.Address `json:"billingAddress"`
	PaymentMethod   string          `json:"paymentMethod" binding:"required"`
	Notes           string          `json:"notes" binding:"max=500"`
}

type processPaymentRequest struct {
	OrderID        string          `json:"orderId" binding:"required"`
	PaymentMethod  string          `json:"paymentMethod" binding:"required"`
	PaymentDetails *paymentDetails `json:"paymentDetails"`
}

type paymentDetails struct {
	PaypalID string `json:"paypalId"`
}

// orderNumberAttempts bounds the regenerate-and-retry loop on a duplicate
// order number. The suffix space makes a second collision vanishingly rare.
const orderNumberAttempts = 3

// ValidateCheckout reconciles the cart against live stock and prices the
// order without committing anything. It is read-only and can be called
// repeatedly to keep the client's view current.
func ValidateCheckout(books store.BookStore, carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/validate"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.FindByUser(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrCartNotFound) {
			respondServerError(c, route, "Error validating checkout", err)
			return
		}
		if cart == nil || len(cart.Items) == 0 {
			message := "Cart is empty"
			if cart == nil {
				message = "Cart not found"
			}
			respondErrorData(c, http.StatusBadRequest, message, gin.H{
				"isValid": false,
				"issues":  []string{message},
			})
			return
		}

		issues := []string{}
		warnings := []string{}
		subtotal := 0.0

		for _, item := range cart.Items {
			book, err := books.FindByID(ctx, item.BookID)
			if err != nil {
				if errors.Is(err, store.ErrBookNotFound) {
					issues = append(issues, fmt.Sprintf("Book %s: Book not found", item.BookID.Hex()))
					continue
				}
				respondServerError(c, route, "Error validating checkout", err)
				return
			}

			if !book.IsApproved {
				issues = append(issues, fmt.Sprintf("%q is currently unavailable", book.Title))
				continue
			}

			if book.Stock < item.Quantity {
				issues = append(issues,
					fmt.Sprintf("%q - Only %d copies available (requested: %d)", book.Title, book.Stock, item.Quantity))
				continue
			}

			if book.Stock < config.AppEnv.LowStockThreshold {
				warnings = append(warnings,
					fmt.Sprintf("%q - Low stock (%d copies remaining)", book.Title, book.Stock))
			}

			subtotal += item.Subtotal()
		}

		shippingCost := config.AppEnv.ShippingCost

		respondData(c, http.StatusOK, "", gin.H{
			"isValid": len(issues) == 0,
			"cart":    cartData(cart),
			"checkout": gin.H{
				"subtotal":     subtotal,
				"shippingCost": shippingCost,
				"totalAmount":  subtotal + shippingCost,
			},
			"issues":   issues,
			"warnings": warnings,
		})
	}
}

// GetShippingOptions prices delivery tiers from the cart's estimated weight.
func GetShippingOptions(carts store.CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /checkout/shipping-options"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.FindByUser(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrCartNotFound) {
			respondServerError(c, route, "Error fetching shipping options", err)
			return
		}
		if cart == nil || len(cart.Items) == 0 {
			respondData(c, http.StatusOK, "", gin.H{
				"options": []gin.H{},
				"message": "Cart is empty",
			})
			return
		}

		// Flat estimate of half a kilo per copy.
		totalWeight := 0.0
		for _, item := range cart.Items {
			totalWeight += 0.5 * float64(item.Quantity)
		}

		expressCost := 100.0
		overnightCost := 200.0
		if totalWeight > 2 {
			expressCost = 150
			overnightCost = 300
		}

		recommended := "express"
		if totalWeight > 2 {
			recommended = "standard"
		}

		respondData(c, http.StatusOK, "", gin.H{
			"options": []gin.H{
				{
					"id":            "standard",
					"name":          "Standard Delivery",
					"description":   "5-7 business days",
					"cost":          config.AppEnv.ShippingCost,
					"estimatedDays": "5-7",
				},
				{
					"id":            "express",
					"name":          "Express Delivery",
					"description":   "2-3 business days",
					"cost":          expressCost,
					"estimatedDays": "2-3",
				},
				{
					"id":            "overnight",
					"name":          "Overnight Delivery",
					"description":   "Next business day",
					"cost":          overnightCost,
					"estimatedDays": "1",
				},
			},
			"cartWeight":  totalWeight,
			"recommended": recommended,
		})
	}
}

// ProcessCheckout turns a validated cart into an order. Stock is checked but
// NOT decremented here; the decrement happens on payment confirmation, which
// leaves a narrow oversell window between creation and payment.
func ProcessCheckout(books store.BookStore, carts store.CartStore, orders store.OrderStore, stockMgr *stock.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/process"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		var req processCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if !models.ValidPaymentMethod(req.PaymentMethod) {
			respondError(c, http.StatusBadRequest, "invalid payment method")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.FindByUser(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrCartNotFound) {
			respondServerError(c, route, "Error processing checkout", err)
			return
		}
		if cart == nil {
			respondError(c, http.StatusBadRequest, "Cart not found")
			return
		}
		if len(cart.Items) == 0 {
			respondError(c, http.StatusBadRequest, "Cart is empty")
			return
		}

		orderItems := make([]models.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			orderItems = append(orderItems, models.OrderItem{
				BookID:      item.BookID,
				Quantity:    item.Quantity,
				PriceAtTime: item.PriceAtTime,
				Subtotal:    item.Subtotal(),
			})
		}

		validation := stockMgr.ValidateAvailability(ctx, orderItems)
		if !validation.IsValid {
			respondErrorData(c, http.StatusBadRequest, "Stock issues detected", gin.H{
				"issues": validation.Issues,
			})
			return
		}

		// Freeze the titles alongside prices so the snapshot stays
		// readable even if the catalog entry is later edited or removed.
		titles := make(map[primitive.ObjectID]string, len(validation.ValidItems))
		for _, valid := range validation.ValidItems {
			titles[valid.BookID] = valid.Title
		}
		for i := range orderItems {
			orderItems[i].Title = titles[orderItems[i].BookID]
		}

		billing := req.ShippingAddress
		if req.BillingAddress != nil {
			billing = *req.BillingAddress
		}

		subtotal := cart.TotalAmount
		shippingCost := config.AppEnv.ShippingCost

		order := &models.Order{
			UserID:          userID,
			Items:           orderItems,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  billing,
			Subtotal:        subtotal,
			ShippingCost:    shippingCost,
			TotalAmount:     subtotal + shippingCost,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   models.PaymentStatusPending,
			OrderStatus:     models.OrderStatusPending,
			Notes:           req.Notes,
		}

		inserted := false
		for attempt := 0; attempt < orderNumberAttempts; attempt++ {
			order.OrderNumber = models.NewOrderNumber()
			err = orders.Insert(ctx, order)
			if err == nil {
				inserted = true
				break
			}
			if !errors.Is(err, store.ErrDuplicateOrderNumber) {
				respondServerError(c, route, "Error processing checkout", err)
				return
			}
			log.Printf("[%s] order number collision, retrying", route)
		}
		if !inserted {
			respondServerError(c, route, "Error processing checkout", err)
			return
		}

		if err := carts.Clear(ctx, userID); err != nil {
			// The order exists; a stale cart is recoverable by the user.
			log.Printf("[%s] [ERROR] failed to clear cart after checkout: %v", route, err)
		}

		log.Printf("[%s] order %s created for user %s", route, order.OrderNumber, userID.Hex())
		respondData(c, http.StatusCreated, "Checkout completed successfully", gin.H{
			"order":       order,
			"orderNumber": order.OrderNumber,
		})
	}
}

// ProcessPayment confirms payment and only then reduces stock. If any item
// cannot be decremented the order stays pending and the shortfalls are
// returned; decrements already applied in the batch are not compensated.
func ProcessPayment(orders store.OrderStore, stockMgr *stock.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/payment"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		var req processPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		order, err := orders.FindByIDForUser(ctx, orderID, userID)
		if err != nil {
			if errors.Is(err, store.ErrOrderNotFound) {
				respondError(c, http.StatusNotFound, "Order not found")
				return
			}
			respondServerError(c, route, "Error processing payment", err)
			return
		}

		if order.PaymentStatus == models.PaymentStatusPaid {
			respondError(c, http.StatusBadRequest, "Order is already paid")
			return
		}

		paymentID, message, payErr := simulatePayment(req.PaymentMethod, req.PaymentDetails)
		if payErr != nil {
			respondErrorData(c, http.StatusBadRequest, "Payment failed", gin.H{
				"error": payErr.Error(),
			})
			return
		}

		reduction := stockMgr.ReduceAfterPayment(ctx, order.Items)
		if !reduction.Success {
			respondErrorData(c, http.StatusBadRequest, "Stock reduction failed after payment", gin.H{
				"errors": reduction.Errors,
			})
			return
		}

		order.PaymentStatus = models.PaymentStatusPaid
		order.OrderStatus = models.OrderStatusConfirmed
		order.PaymentID = paymentID

		if err := orders.Update(ctx, order); err != nil {
			respondServerError(c, route, "Error processing payment", err)
			return
		}

		log.Printf("[%s] order %s paid via %s", route, order.OrderNumber, req.PaymentMethod)
		respondData(c, http.StatusOK, "Payment processed successfully", gin.H{
			"order": order,
			"payment": gin.H{
				"paymentId": paymentID,
				"message":   message,
			},
		})
	}
}

// simulatePayment stands in for a real payment gateway.
func simulatePayment(method string, details *paymentDetails) (paymentID, message string, err error) {
	switch method {
	case models.PaymentMethodCashOnDelivery:
		return "COD-" + uuid.NewString(), "Cash on delivery payment confirmed", nil
	case models.PaymentMethodPaypal:
		if details == nil || details.PaypalID == "" {
			return "", "", errors.New("PayPal payment details required")
		}
		return details.PaypalID, "PayPal payment processed successfully", nil
	default:
		return "", "", errors.New("Unsupported payment method")
	}
}
