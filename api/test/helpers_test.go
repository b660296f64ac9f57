package test

import (
	"net/http"
	"testing"

	"github.com/ecomstore/api/core/cart"
	"github.com/ecomstore/api/core/order"
	"github.com/ecomstore/api/core/product"
)

// createProductOK requires an admin session.
func (te *TestEnv) createProductOK(t *testing.T, name string, price int) product.Product {
	t.Helper()

	body := map[string]any{
		"name":        name,
		"description": "The " + name + " product",
		"price":       price,
	}

	var p product.Product
	if code := te.request(t, http.MethodPost, te.URL+"/products", body, &p); code != http.StatusCreated {
		t.Fatalf("can't create product %s: status code %d", name, code)
	}
	return p
}

func (te *TestEnv) addCartItemOK(t *testing.T, productID string, quantity int) {
	t.Helper()

	body := map[string]any{
		"productId": productID,
		"quantity":  quantity,
	}

	var item cart.Item
	if code := te.request(t, http.MethodPut, te.URL+"/cart/items", body, &item); code != http.StatusOK {
		t.Fatalf("can't add product %s to cart: status code %d", productID, code)
	}
}

func (te *TestEnv) placeOrderOK(t *testing.T) order.Order {
	t.Helper()

	var ord order.Order
	if code := te.request(t, http.MethodPost, te.URL+"/orders", nil, &ord); code != http.StatusCreated {
		t.Fatalf("can't place order: status code %d", code)
	}
	return ord
}

func (te *TestEnv) fetchOrderOK(t *testing.T, id string) order.Order {
	t.Helper()

	var ord order.Order
	if code := te.request(t, http.MethodGet, te.URL+"/orders/"+id, nil, &ord); code != http.StatusOK {
		t.Fatalf("can't fetch order %s: status code %d", id, code)
	}
	return ord
}

func (te *TestEnv) fetchCartOK(t *testing.T) cart.Cart {
	t.Helper()

	var c cart.Cart
	if code := te.request(t, http.MethodGet, te.URL+"/cart", nil, &c); code != http.StatusOK {
		t.Fatalf("can't fetch cart: status code %d", code)
	}
	return c
}
