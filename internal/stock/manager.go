// Package stock implements the two-phase stock protocol used by checkout:
// an advisory, non-mutating availability check, and the authoritative
// per-item conditional decrement that runs after payment confirmation.
package stock

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/models"
	"bookstore/internal/store"
)

// Manager performs stock validation and reduction against the catalog.
type Manager struct {
	books store.BookStore
}

func NewManager(books store.BookStore) *Manager {
	return &Manager{books: books}
}

// ValidItem describes a line that passed the availability check.
type ValidItem struct {
	BookID         primitive.ObjectID `json:"bookId"`
	Title          string             `json:"title"`
	Quantity       int                `json:"quantity"`
	AvailableStock int                `json:"availableStock"`
}

// ValidationResult aggregates the availability check over all items.
// IsValid is true only when every item has sufficient stock.
type ValidationResult struct {
	IsValid    bool        `json:"isValid"`
	ValidItems []ValidItem `json:"validItems"`
	Issues     []string    `json:"issues"`
}

// ReducedItem records a successful decrement and the stock that remains.
type ReducedItem struct {
	BookID   primitive.ObjectID `json:"bookId"`
	Quantity int                `json:"quantity"`
	NewStock int                `json:"newStock"`
}

// ReductionResult aggregates the post-payment decrement over all items.
// Success is true only when every item was decremented.
type ReductionResult struct {
	Success bool          `json:"success"`
	Results []ReducedItem `json:"results"`
	Errors  []string      `json:"errors"`
}

// ValidateAvailability reads current stock for each item and reports
// per-item shortfalls. It never mutates anything and may be called
// repeatedly; the result reflects stock at the moment of the call only.
func (m *Manager) ValidateAvailability(ctx context.Context, items []models.OrderItem) ValidationResult {
	result := ValidationResult{
		ValidItems: make([]ValidItem, 0, len(items)),
		Issues:     []string{},
	}

	for _, item := range items {
		book, err := m.books.FindByID(ctx, item.BookID)
		if err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				result.Issues = append(result.Issues, fmt.Sprintf("Book %s: Book not found", item.BookID.Hex()))
			} else {
				result.Issues = append(result.Issues, fmt.Sprintf("Book %s: %v", item.BookID.Hex(), err))
			}
			continue
		}

		if book.Stock < item.Quantity {
			result.Issues = append(result.Issues,
				fmt.Sprintf("%q: Only %d copies available (requested: %d)", book.Title, book.Stock, item.Quantity))
			continue
		}

		result.ValidItems = append(result.ValidItems, ValidItem{
			BookID:         item.BookID,
			Title:          book.Title,
			Quantity:       item.Quantity,
			AvailableStock: book.Stock,
		})
	}

	result.IsValid = len(result.Issues) == 0
	return result
}

// ReduceAfterPayment decrements stock for each item with a single conditional
// write per book. A failed item is recorded as an error and the loop keeps
// going; decrements already applied are NOT rolled back, so a batch can be
// partially applied. The caller treats any error as overall failure.
func (m *Manager) ReduceAfterPayment(ctx context.Context, items []models.OrderItem) ReductionResult {
	result := ReductionResult{
		Results: make([]ReducedItem, 0, len(items)),
		Errors:  []string{},
	}

	for _, item := range items {
		newStock, err := m.books.DecrementStock(ctx, item.BookID, item.Quantity)
		if err != nil {
			if errors.Is(err, store.ErrInsufficientStock) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("Book %s: Insufficient stock available (requested: %d)", item.BookID.Hex(), item.Quantity))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("Book %s: %v", item.BookID.Hex(), err))
			}
			continue
		}

		result.Results = append(result.Results, ReducedItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			NewStock: newStock,
		})
	}

	result.Success = len(result.Errors) == 0
	return result
}
