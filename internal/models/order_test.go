package models

import (
	"regexp"
	"testing"
	"time"
)

func TestNewOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{8}-\d{5}$`)

	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		if !pattern.MatchString(n) {
			t.Fatalf("order number %q does not match ORD-YYYYMMDD-XXXXX", n)
		}
	}
}

func TestNewOrderNumberCarriesToday(t *testing.T) {
	n := NewOrderNumber()
	want := "ORD-" + time.Now().Format("20060102")
	if n[:12] != want {
		t.Errorf("order number prefix = %q, want %q", n[:12], want)
	}
}

func TestValidPaymentMethod(t *testing.T) {
	if !ValidPaymentMethod(PaymentMethodCashOnDelivery) || !ValidPaymentMethod(PaymentMethodPaypal) {
		t.Error("known methods should be valid")
	}
	if ValidPaymentMethod("bitcoin") || ValidPaymentMethod("") {
		t.Error("unknown methods should be invalid")
	}
}

func TestValidPaymentStatus(t *testing.T) {
	for _, s := range []string{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded} {
		if !ValidPaymentStatus(s) {
			t.Errorf("status %q should be valid", s)
		}
	}
	if ValidPaymentStatus("chargeback") {
		t.Error("unknown status should be invalid")
	}
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled} {
		if !ValidOrderStatus(s) {
			t.Errorf("status %q should be valid", s)
		}
	}
	if ValidOrderStatus("lost") {
		t.Error("unknown status should be invalid")
	}
}
