package models

import "testing"

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		discount float64
		want     float64
	}{
		{"no discount", 200, 0, 200},
		{"quarter off", 200, 25, 150},
		{"full discount", 200, 100, 0},
		{"negative discount ignored", 200, -10, 200},
		{"discount over 100 ignored", 200, 150, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := Book{Price: tt.price, Discount: tt.discount}
			if got := book.DiscountedPrice(); got != tt.want {
				t.Errorf("DiscountedPrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInStock(t *testing.T) {
	book := Book{Stock: 3}

	if !book.InStock(3) {
		t.Error("InStock(3) with stock 3 should be true")
	}
	if book.InStock(4) {
		t.Error("InStock(4) with stock 3 should be false")
	}
	if !book.InStock(0) {
		t.Error("InStock(0) should always be true")
	}
}
