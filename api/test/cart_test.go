package test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	env.Login(t, env.AdminEmail, env.AdminPass)
	p1 := env.createProductOK(t, "Keyboard", 4999)
	p2 := env.createProductOK(t, "Mouse", 1950)
	env.Logout(t)

	if code := env.request(t, http.MethodGet, env.URL+"/cart", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous cart fetch: expected 401, got %d", code)
	}

	env.Login(t, env.UserEmail, env.UserPass)

	if items := env.fetchCartOK(t).Items; len(items) != 0 {
		t.Fatalf("expected an empty cart, got %d items", len(items))
	}

	// Unknown products and out-of-range quantities never land in the cart.
	body := map[string]any{"productId": uuid.NewString(), "quantity": 1}
	if code := env.request(t, http.MethodPut, env.URL+"/cart/items", body, nil); code != http.StatusNotFound {
		t.Fatalf("adding unknown product: expected 404, got %d", code)
	}
	body = map[string]any{"productId": p1.ID, "quantity": 0}
	if code := env.request(t, http.MethodPut, env.URL+"/cart/items", body, nil); code != http.StatusUnprocessableEntity {
		t.Fatalf("zero quantity: expected 422, got %d", code)
	}
	body = map[string]any{"productId": p1.ID, "quantity": 51}
	if code := env.request(t, http.MethodPut, env.URL+"/cart/items", body, nil); code != http.StatusUnprocessableEntity {
		t.Fatalf("oversized quantity: expected 422, got %d", code)
	}

	env.addCartItemOK(t, p1.ID, 2)
	env.addCartItemOK(t, p2.ID, 1)

	items := env.fetchCartOK(t).Items
	if len(items) != 2 {
		t.Fatalf("expected 2 cart items, got %d", len(items))
	}

	// Re-adding a product replaces its quantity instead of stacking rows.
	env.addCartItemOK(t, p1.ID, 5)
	items = env.fetchCartOK(t).Items
	if len(items) != 2 {
		t.Fatalf("expected 2 cart items after upsert, got %d", len(items))
	}
	for _, it := range items {
		if it.ProductID == p1.ID && it.Quantity != 5 {
			t.Fatalf("expected a quantity of 5, got %d", it.Quantity)
		}
	}

	if code := env.request(t, http.MethodDelete, env.URL+"/cart/items/"+p2.ID, nil, nil); code != http.StatusNoContent {
		t.Fatalf("removing cart item: status code %d", code)
	}
	if items := env.fetchCartOK(t).Items; len(items) != 1 {
		t.Fatalf("expected 1 cart item after removal, got %d", len(items))
	}

	// Carts are per user.
	env.Logout(t)
	env.Login(t, env.OtherEmail, env.OtherPass)
	if items := env.fetchCartOK(t).Items; len(items) != 0 {
		t.Fatalf("expected another user's cart to be empty, got %d items", len(items))
	}
	env.Logout(t)

	env.Login(t, env.UserEmail, env.UserPass)
	if code := env.request(t, http.MethodDelete, env.URL+"/cart", nil, nil); code != http.StatusNoContent {
		t.Fatalf("flushing cart: status code %d", code)
	}
	if items := env.fetchCartOK(t).Items; len(items) != 0 {
		t.Fatalf("expected a flushed cart, got %d items", len(items))
	}
}
