package test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"

	"github.com/ecomstore/api/api/web"
	"github.com/ecomstore/api/core/order"
	"github.com/gorilla/mux"
	"github.com/plutov/paypal/v4"
	mock "github.com/stripe/stripe-mock/param"
)

// mockStripe imitates the checkout-session endpoint: it checks the
// submitted line items against the expected order and answers with a
// fresh session.
type mockStripe struct {
	mu            sync.Mutex
	expectedItems []order.Item
	lastOrderID   string
	failMsg       string
}

func (m *mockStripe) expect(items []order.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectedItems = items
}

// fail makes the next session creation answer with a processor error.
func (m *mockStripe) fail(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failMsg = msg
}

func (m *mockStripe) metadataOrderID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOrderID
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.failMsg != "" {
			msg := m.failMsg
			m.failMsg = ""
			body := map[string]any{
				"error": map[string]any{"message": msg, "type": "card_error"},
			}
			web.Respond(context.Background(), w, body, 402)
			return
		}

		params, _ := mock.ParseParams(r)

		lines, ok := params["line_items"].(map[string]any)
		if !ok || len(lines) != len(m.expectedItems) {
			web.Respond(context.Background(), w, map[string]any{"error": "line item count mismatch"}, 400)
			return
		}

		for key, li := range lines {
			idx, err := strconv.Atoi(key)
			if err != nil || idx >= len(m.expectedItems) {
				web.Respond(context.Background(), w, map[string]any{"error": "bad line item index"}, 400)
				return
			}
			exp := m.expectedItems[idx]

			it := li.(map[string]any)
			if it["quantity"] != strconv.Itoa(exp.Quantity) {
				web.Respond(context.Background(), w, map[string]any{"error": "quantity mismatch"}, 400)
				return
			}

			pd := it["price_data"].(map[string]any)
			if pd["currency"] != "usd" {
				web.Respond(context.Background(), w, map[string]any{"error": "currency mismatch"}, 400)
				return
			}
			if pd["unit_amount"] != strconv.Itoa(exp.Price) {
				web.Respond(context.Background(), w, map[string]any{"error": "unit amount mismatch"}, 400)
				return
			}

			prod := pd["product_data"].(map[string]any)
			if prod["name"] != exp.Name || prod["description"] != exp.Description {
				web.Respond(context.Background(), w, map[string]any{"error": "product data mismatch"}, 400)
				return
			}
		}

		md, ok := params["metadata"].(map[string]any)
		if !ok {
			web.Respond(context.Background(), w, map[string]any{"error": "missing metadata"}, 400)
			return
		}
		m.lastOrderID, _ = md["order_id"].(string)
		if m.lastOrderID == "" {
			web.Respond(context.Background(), w, map[string]any{"error": "missing order id"}, 400)
			return
		}

		sid := fmt.Sprintf("cs_test_%d", rand.Intn(100000))
		session := map[string]any{
			"id":   sid,
			"url":  "https://checkout.stripe.com/pay/" + sid,
			"mode": "payment",
		}
		web.Respond(context.Background(), w, session, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	return r
}

type mockPaypal struct {
	mu            sync.Mutex
	expectedItems []order.Item
}

func (m *mockPaypal) expect(items []order.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectedItems = items
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		web.Respond(context.Background(), w, body, 200)
	})

	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if len(pu.Units) != 1 || len(pu.Units[0].Items) != len(m.expectedItems) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		var tot int
		for _, it := range m.expectedItems {
			tot += it.Price * it.Quantity
		}

		exp := fmt.Sprintf("%d.%02d", tot/100, tot%100)
		if pu.Units[0].Amount.Value != exp {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		randID := fmt.Sprintf("paypal-%d", rand.Intn(100000))
		ord := paypal.Order{ID: randID}
		web.Respond(context.Background(), w, ord, 200)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"id":     web.Param(r, "id"),
			"status": "COMPLETED",
		}
		web.Respond(context.Background(), w, body, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}
