package order

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stripe/stripe-go/v74"
)

func TestStripeLineItems(t *testing.T) {
	items := []Item{
		{ProductID: "p1", Name: "Keyboard", Description: "A keyboard", Price: 4999, Quantity: 2},
		{ProductID: "p2", Name: "Mouse", Description: "A mouse", Price: 1950, Quantity: 1},
	}

	li := stripeLineItems(items)
	if len(li) != len(items) {
		t.Fatalf("expected %d line items, got %d", len(items), len(li))
	}

	for i, it := range items {
		got := li[i]
		if *got.Quantity != int64(it.Quantity) {
			t.Errorf("item %d: expected quantity %d, got %d", i, it.Quantity, *got.Quantity)
		}
		if *got.PriceData.UnitAmount != int64(it.Price) {
			t.Errorf("item %d: expected unit amount %d, got %d", i, it.Price, *got.PriceData.UnitAmount)
		}
		if *got.PriceData.Currency != "usd" {
			t.Errorf("item %d: expected usd currency, got %s", i, *got.PriceData.Currency)
		}
		if *got.PriceData.ProductData.Name != it.Name {
			t.Errorf("item %d: expected name %q, got %q", i, it.Name, *got.PriceData.ProductData.Name)
		}
		if *got.PriceData.ProductData.Description != it.Description {
			t.Errorf("item %d: expected description %q, got %q", i, it.Description, *got.PriceData.ProductData.Description)
		}
	}
}

func TestPaypalItems(t *testing.T) {
	items := []Item{
		{Name: "Keyboard", Description: "A keyboard", Price: 4999, Quantity: 2},
	}

	got := paypalItems(items)
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].Quantity != "2" {
		t.Errorf("expected quantity \"2\", got %q", got[0].Quantity)
	}
	if diff := cmp.Diff("49.99", got[0].UnitAmount.Value); diff != "" {
		t.Errorf("unit amount mismatch (-want +got):\n%s", diff)
	}
}

func TestMinorToDecimal(t *testing.T) {
	tests := []struct {
		amount int
		want   string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{99, "0.99"},
		{100, "1.00"},
		{4999, "49.99"},
		{123400, "1234.00"},
	}

	for _, tt := range tests {
		if got := minorToDecimal(tt.amount); got != tt.want {
			t.Errorf("minorToDecimal(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestTotal(t *testing.T) {
	items := []Item{
		{Price: 4999, Quantity: 2},
		{Price: 1950, Quantity: 3},
	}
	if got := total(items); got != 4999*2+1950*3 {
		t.Fatalf("unexpected total %d", got)
	}
}

func TestCustomerEmail(t *testing.T) {
	if got := customerEmail(stripe.CheckoutSession{}); got != "" {
		t.Fatalf("expected empty email without customer details, got %q", got)
	}

	s := stripe.CheckoutSession{
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "buyer@example.com"},
	}
	if got := customerEmail(s); got != "buyer@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
}
