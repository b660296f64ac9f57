package test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/ecomstore/api/core/payment"
	"github.com/google/uuid"
	"github.com/plutov/paypal/v4"
)

type stripeSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

func TestOrderPlacement(t *testing.T) {
	env, err := NewTestEnv(t, "order_placement_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	env.Login(t, env.AdminEmail, env.AdminPass)
	p1 := env.createProductOK(t, "Keyboard", 4999)
	p2 := env.createProductOK(t, "Mouse", 1950)
	env.Logout(t)

	// An empty cart cannot be ordered.
	env.Login(t, env.OtherEmail, env.OtherPass)
	if code := env.request(t, http.MethodPost, env.URL+"/orders", nil, nil); code != http.StatusUnprocessableEntity {
		t.Fatalf("ordering an empty cart: expected 422, got %d", code)
	}
	env.Logout(t)

	env.Login(t, env.UserEmail, env.UserPass)
	env.addCartItemOK(t, p1.ID, 1)
	env.addCartItemOK(t, p2.ID, 3)

	ord := env.placeOrderOK(t)
	if len(ord.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(ord.Items))
	}

	// Line items snapshot the catalog at placement time.
	byProduct := map[string]int{p1.ID: 4999, p2.ID: 1950}
	for _, it := range ord.Items {
		if want := byProduct[it.ProductID]; it.Price != want {
			t.Fatalf("item %s: expected price %d, got %d", it.ProductID, want, it.Price)
		}
	}

	got := env.fetchOrderOK(t, ord.ID)
	if got.Status != "pending" {
		t.Fatalf("expected a pending order, got %s", got.Status)
	}

	// Orders are invisible to other customers.
	env.Logout(t)
	env.Login(t, env.OtherEmail, env.OtherPass)
	if code := env.request(t, http.MethodGet, env.URL+"/orders/"+ord.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("fetching a foreign order: expected 404, got %d", code)
	}
}

func TestStripeCheckout(t *testing.T) {
	env, err := NewTestEnv(t, "stripe_checkout_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	env.Login(t, env.AdminEmail, env.AdminPass)
	p1 := env.createProductOK(t, "Keyboard", 4999)
	p2 := env.createProductOK(t, "Monitor", 19900)
	env.Logout(t)

	env.Login(t, env.UserEmail, env.UserPass)
	env.addCartItemOK(t, p1.ID, 2)
	env.addCartItemOK(t, p2.ID, 1)
	ord := env.placeOrderOK(t)

	// The mock backend rejects the session unless every line item
	// matches the order snapshot.
	env.Stripe.expect(ord.Items)

	var sess stripeSession
	if code := env.request(t, http.MethodPost, env.URL+"/orders/stripe/"+ord.ID, nil, &sess); code != http.StatusCreated {
		t.Fatalf("creating a checkout session: status code %d", code)
	}
	if sess.SessionID == "" || sess.URL == "" {
		t.Fatalf("incomplete session response: %+v", sess)
	}

	if got := env.Stripe.metadataOrderID(); got != ord.ID {
		t.Fatalf("session metadata carries order %q, expected %q", got, ord.ID)
	}

	// Unknown and foreign orders are rejected before any call out.
	if code := env.request(t, http.MethodPost, env.URL+"/orders/stripe/"+uuid.NewString(), nil, nil); code != http.StatusNotFound {
		t.Fatalf("checkout of unknown order: expected 404, got %d", code)
	}
	env.Logout(t)

	env.Login(t, env.OtherEmail, env.OtherPass)
	if code := env.request(t, http.MethodPost, env.URL+"/orders/stripe/"+ord.ID, nil, nil); code != http.StatusForbidden {
		t.Fatalf("checkout of a foreign order: expected 403, got %d", code)
	}
	env.Logout(t)

	// Completing the payment closes the door on further checkouts.
	session := map[string]any{
		"id":       sess.SessionID,
		"metadata": map[string]any{"order_id": ord.ID},
		"customer_details": map[string]any{
			"email": env.UserEmail,
		},
	}
	body, sig := env.signedEvent(t, "checkout.session.completed", session)
	if code := env.postWebhook(t, env.URL, body, sig); code != http.StatusOK {
		t.Fatalf("completion event: expected 200, got %d", code)
	}

	env.Login(t, env.UserEmail, env.UserPass)
	if got := env.paymentStatus(t, ord.ID); got != payment.Complete {
		t.Fatalf("expected a complete payment, got %s", got)
	}
	if code := env.request(t, http.MethodPost, env.URL+"/orders/stripe/"+ord.ID, nil, nil); code != http.StatusForbidden {
		t.Fatalf("checkout of a paid order: expected 403, got %d", code)
	}
}

func TestStripeProcessorError(t *testing.T) {
	env, err := NewTestEnv(t, "stripe_procerr_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	env.Login(t, env.AdminEmail, env.AdminPass)
	p1 := env.createProductOK(t, "Headset", 12900)
	env.Logout(t)

	env.Login(t, env.UserEmail, env.UserPass)
	env.addCartItemOK(t, p1.ID, 1)
	ord := env.placeOrderOK(t)

	// A processor failure surfaces as 400 carrying the error text and
	// leaves the local store untouched.
	env.Stripe.fail("Your card was declined.")

	w, err := env.Client().Post(env.URL+"/orders/stripe/"+ord.ID, "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	b, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusBadRequest {
		t.Fatalf("failed session creation: expected 400, got %d", w.StatusCode)
	}
	if !strings.Contains(string(b), "declined") {
		t.Fatalf("response does not carry the processor error: %q", string(b))
	}

	if got := env.paymentStatus(t, ord.ID); got != payment.Pending {
		t.Fatalf("a failed session creation must not mutate, payment is %s", got)
	}

	// The order can still be checked out once the processor recovers.
	env.Stripe.expect(ord.Items)
	var sess stripeSession
	if code := env.request(t, http.MethodPost, env.URL+"/orders/stripe/"+ord.ID, nil, &sess); code != http.StatusCreated {
		t.Fatalf("retrying the checkout: status code %d", code)
	}
}

func TestPaypalCheckout(t *testing.T) {
	env, err := NewTestEnv(t, "paypal_checkout_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	env.Login(t, env.AdminEmail, env.AdminPass)
	p1 := env.createProductOK(t, "Desk", 24900)
	env.Logout(t)

	env.Login(t, env.UserEmail, env.UserPass)
	env.addCartItemOK(t, p1.ID, 2)
	ord := env.placeOrderOK(t)

	// Without a configured client both paypal endpoints answer 503.
	if code := env.request(t, http.MethodPost, env.DisabledURL+"/orders/paypal/"+ord.ID, nil, nil); code != http.StatusServiceUnavailable {
		t.Fatalf("disabled paypal checkout: expected 503, got %d", code)
	}
	if code := env.request(t, http.MethodPost, env.DisabledURL+"/orders/paypal/some-id/capture", nil, nil); code != http.StatusServiceUnavailable {
		t.Fatalf("disabled paypal capture: expected 503, got %d", code)
	}

	env.Paypal.expect(ord.Items)

	var ppOrd paypal.Order
	if code := env.request(t, http.MethodPost, env.URL+"/orders/paypal/"+ord.ID, nil, &ppOrd); code != http.StatusCreated {
		t.Fatalf("creating a paypal order: status code %d", code)
	}
	if ppOrd.ID == "" {
		t.Fatal("paypal order without an id")
	}

	if code := env.request(t, http.MethodPost, env.URL+"/orders/paypal/"+ppOrd.ID+"/capture", nil, nil); code != http.StatusNoContent {
		t.Fatalf("capturing the paypal order: status code %d", code)
	}

	if got := env.paymentStatus(t, ord.ID); got != payment.Complete {
		t.Fatalf("expected a complete payment, got %s", got)
	}
	if got := env.fetchOrderOK(t, ord.ID).Status; got != "success" {
		t.Fatalf("expected a successful order, got %s", got)
	}
}
