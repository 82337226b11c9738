package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/models"
	"bookstore/internal/store"
)

// orderSortField whitelists the sortable order fields so the query value
// never reaches the sort document unchecked.
func orderSortField(raw string) string {
	switch raw {
	case "totalAmount", "orderStatus", "paymentStatus", "createdAt":
		return raw
	default:
		return "createdAt"
	}
}

type updateOrderStatusRequest struct {
	OrderStatus    string `json:"orderStatus"`
	TrackingNumber string `json:"trackingNumber"`
	Notes          string `json:"notes" binding:"max=500"`
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

// GetUserOrders lists the caller's order history, newest first.
func GetUserOrders(orders store.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := store.OrderFilter{
			Status:   c.Query("status"),
			SortDesc: true,
			Page:     page,
			Limit:    limit,
		}

		list, total, err := orders.ListByUser(ctx, userID, filter)
		if err != nil {
			respondServerError(c, route, "Error fetching orders", err)
			return
		}

		respondData(c, http.StatusOK, "", gin.H{
			"orders":     list,
			"pagination": paginationBlock(page, limit, total),
		})
	}
}

// GetOrderByID returns one order, scoped to the caller.
func GetOrderByID(orders store.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:orderId"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
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
			respondServerError(c, route, "Error fetching order", err)
			return
		}

		respondData(c, http.StatusOK, "", order)
	}
}

// UpdateOrderStatus is the admin fulfilment endpoint. Any known status is
// accepted; transitions are not otherwise guarded. Reaching delivered
// stamps the delivery time.
func UpdateOrderStatus(orders store.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:orderId/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid orderId")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.OrderStatus != "" && !models.ValidOrderStatus(req.OrderStatus) {
			respondError(c, http.StatusBadRequest, "invalid order status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		order, err := orders.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, store.ErrOrderNotFound) {
				respondError(c, http.StatusNotFound, "Order not found")
				return
			}
			respondServerError(c, route, "Error updating order status", err)
			return
		}

		if req.OrderStatus != "" {
			order.OrderStatus = req.OrderStatus
			if req.OrderStatus == models.OrderStatusDelivered {
				now := time.Now()
				order.DeliveredAt = &now
			}
		}
		if req.TrackingNumber != "" {
			order.TrackingNumber = req.TrackingNumber
		}
		if req.Notes != "" {
			order.Notes = req.Notes
		}

		if err := orders.Update(ctx, order); err != nil {
			respondServerError(c, route, "Error updating order status", err)
			return
		}

		log.Printf("[%s] order %s status -> %s", route, order.OrderNumber, order.OrderStatus)
		respondData(c, http.StatusOK, "Order status updated successfully", order)
	}
}

// UpdatePaymentStatus lets an admin correct payment state, e.g. marking a
// refund. Enum membership is the only guard.
func UpdatePaymentStatus(orders store.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:orderId/payment-status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid orderId")
			return
		}

		var req updatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if !models.ValidPaymentStatus(req.PaymentStatus) {
			respondError(c, http.StatusBadRequest, "invalid payment status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		order, err := orders.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, store.ErrOrderNotFound) {
				respondError(c, http.StatusNotFound, "Order not found")
				return
			}
			respondServerError(c, route, "Error updating payment status", err)
			return
		}

		order.PaymentStatus = req.PaymentStatus

		if err := orders.Update(ctx, order); err != nil {
			respondServerError(c, route, "Error updating payment status", err)
			return
		}

		respondData(c, http.StatusOK, "Payment status updated successfully", order)
	}
}

// GetAllOrders is the admin listing across all users.
func GetAllOrders(orders store.OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/admin/all"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := store.OrderFilter{
			Status:        c.Query("status"),
			PaymentStatus: c.Query("paymentStatus"),
			SortBy:        orderSortField(c.Query("sortBy")),
			SortDesc:      c.Query("sortOrder") != "asc",
			Page:          page,
			Limit:         limit,
		}

		list, total, err := orders.ListAll(ctx, filter)
		if err != nil {
			respondServerError(c, route, "Error fetching orders", err)
			return
		}

		respondData(c, http.StatusOK, "", gin.H{
			"orders":     list,
			"pagination": paginationBlock(page, limit, total),
		})
	}
}
