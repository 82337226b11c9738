package handlers

import (
	"fmt"

	"bookstore/internal/models"
)

// Cart ceiling and stock arithmetic, kept free of I/O so the rules can be
// checked exhaustively. Stock checks here are advisory: nothing is reserved,
// and the authoritative check runs again at checkout and at payment.

const (
	stockStatusIn  = "in_stock"
	stockStatusLow = "low_stock"
	stockStatusOut = "out_of_stock"
)

type stockExceededError struct {
	Title     string
	Available int
	InCart    int
	Requested int
}

func (e stockExceededError) Error() string {
	if e.InCart > 0 {
		return fmt.Sprintf("Cannot add %d. Only %d copies available. You already have %d in your cart.",
			e.Requested, e.Available, e.InCart)
	}
	return fmt.Sprintf("Cannot add %d. Only %d copies available.", e.Requested, e.Available)
}

type cartLimitError struct {
	CurrentTotal int
	Requested    int
	MaxAllowed   int
}

func (e cartLimitError) Error() string {
	return fmt.Sprintf("Cart can only hold a total of %d items. Current total: %d",
		e.MaxAllowed, e.CurrentTotal)
}

// totalQuantityExcluding sums the quantities of all lines except the one at
// exclude (pass -1 to include every line).
func totalQuantityExcluding(items []models.CartItem, exclude int) int {
	total := 0
	for i, item := range items {
		if i == exclude {
			continue
		}
		total += item.Quantity
	}
	return total
}

// checkCartAdd validates adding quantity copies of book to the cart.
// existingIdx is the line already holding this book, or -1.
func checkCartAdd(cart *models.Cart, existingIdx int, book *models.Book, quantity, maxItems int) error {
	inCart := 0
	if existingIdx > -1 {
		inCart = cart.Items[existingIdx].Quantity
	}

	if inCart+quantity > book.Stock {
		return stockExceededError{
			Title:     book.Title,
			Available: book.Stock,
			InCart:    inCart,
			Requested: quantity,
		}
	}

	currentTotal := totalQuantityExcluding(cart.Items, existingIdx)
	if currentTotal+inCart+quantity > maxItems {
		return cartLimitError{
			CurrentTotal: currentTotal + inCart,
			Requested:    quantity,
			MaxAllowed:   maxItems,
		}
	}

	return nil
}

// checkCartUpdate validates setting the line at idx to quantity copies.
func checkCartUpdate(cart *models.Cart, idx int, book *models.Book, quantity, maxItems int) error {
	if quantity > book.Stock {
		return stockExceededError{
			Title:     book.Title,
			Available: book.Stock,
			Requested: quantity,
		}
	}

	currentTotal := totalQuantityExcluding(cart.Items, idx)
	if currentTotal+quantity > maxItems {
		return cartLimitError{
			CurrentTotal: currentTotal,
			Requested:    quantity,
			MaxAllowed:   maxItems,
		}
	}

	return nil
}

// stockStatus classifies live stock for cart reads.
func stockStatus(stock, lowThreshold int) string {
	switch {
	case stock == 0:
		return stockStatusOut
	case stock < lowThreshold:
		return stockStatusLow
	default:
		return stockStatusIn
	}
}
