package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ecomstore/api/api/background"
	"github.com/ecomstore/api/api/web"
	"github.com/ecomstore/api/api/weberr"
	"github.com/ecomstore/api/config"
	"github.com/ecomstore/api/core/claims"
	"github.com/ecomstore/api/core/payment"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/stripe/stripe-go/v74"
)

// Mailer delivers the purchase notification. The webhook enqueues the
// send on the background runner and never waits for it.
type Mailer interface {
	Send(to string, subject string, body string) error
}

// StripeSession is the response of a successful checkout-session
// creation: the client follows URL to the hosted payment page.
type StripeSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

const eventCheckoutCompleted = "checkout.session.completed"

// maxWebhookBytes bounds the unauthenticated webhook body.
const maxWebhookBytes = int64(65536)

func HandleStripeCheckout(db *sqlx.DB, strp payment.StripeBackend, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if !strp.Enabled() {
			return weberr.Unavailable(payment.ErrDisabled, payment.ErrDisabled.Error())
		}

		ord, _, err := authorize(ctx, db, clm, web.Param(r, "order_id"))
		if err != nil {
			return err
		}

		items, err := FetchItems(ctx, db, ord.ID)
		if err != nil {
			return fmt.Errorf("fetching items of order[%s]: %w", ord.ID, err)
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL:         stripe.String(cfg.SuccessURL),
			CancelURL:          stripe.String(cfg.CancelURL),
			Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
			PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
			LineItems:          stripeLineItems(items),
		}
		params.AddMetadata("order_id", ord.ID)

		s, err := strp.NewCheckoutSession(params)
		if err != nil {
			msg := fmt.Sprintf("failed to create checkout session: %v", err)
			return weberr.NewError(fmt.Errorf("creating stripe session: %w", err), msg, http.StatusBadRequest)
		}

		out := StripeSession{SessionID: s.ID, URL: s.URL}
		return web.Respond(ctx, w, out, http.StatusCreated)
	}
}

// HandleStripeWebhook is the only mutating entry point for a payment's
// status. It is reachable without a session, so the event signature is
// verified against the shared webhook secret before anything else
// happens.
func HandleStripeWebhook(db *sqlx.DB, strp payment.StripeBackend, bg *background.Background, mailer Mailer, from string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if !strp.Enabled() {
			return webhookErr(payment.ErrDisabled, http.StatusServiceUnavailable)
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return webhookErr(fmt.Errorf("cannot read the request body: %w", err), http.StatusBadRequest)
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return webhookErr(errors.New("received stripe event is not signed"), http.StatusBadRequest)
		}

		event, err := strp.ConstructEvent(b, sig)
		if err != nil {
			return webhookErr(fmt.Errorf("cannot construct stripe event: %w", err), http.StatusBadRequest)
		}

		// Unknown event types are acknowledged so Stripe stops
		// re-delivering them.
		if event.Type != eventCheckoutCompleted {
			return web.Respond(ctx, w, nil, http.StatusOK)
		}

		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return webhookErr(fmt.Errorf("unable to decode stripe event: %w", err), http.StatusBadRequest)
		}

		orderID := session.Metadata["order_id"]
		if orderID == "" {
			return webhookErr(errors.New("stripe event carries no order id"), http.StatusBadRequest)
		}

		pay, err := payment.FetchByOrderID(ctx, db, orderID)
		if err != nil {
			return fmt.Errorf("fetching the payment of order[%s]: %w", orderID, err)
		}

		ord, err := Fetch(ctx, db, orderID)
		if err != nil {
			return fmt.Errorf("fetching order[%s]: %w", orderID, err)
		}

		if err := fulfill(ctx, db, ord, pay); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		if email := customerEmail(session); email != "" {
			bg.Add(func() error {
				subject := "Thank you for your purchase"
				body := fmt.Sprintf("Your order %s has been placed.\n\n%s", orderID, from)
				return mailer.Send(email, subject, body)
			})
		}

		return web.Respond(ctx, w, nil, http.StatusOK)
	}
}

// webhookErr is logged like any handler error but answers with the
// bare status: Stripe never reads webhook response bodies.
func webhookErr(err error, status int) error {
	return weberr.Wrap(err, weberr.WithResponse(nil, status))
}

func HandlePaypalCheckout(db *sqlx.DB, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if pp == nil {
			err := errors.New("paypal payments are not configured")
			return weberr.Unavailable(err, err.Error())
		}

		ord, pay, err := authorize(ctx, db, clm, web.Param(r, "order_id"))
		if err != nil {
			return err
		}

		items, err := FetchItems(ctx, db, ord.ID)
		if err != nil {
			return fmt.Errorf("fetching items of order[%s]: %w", ord.ID, err)
		}

		units := []paypal.PurchaseUnitRequest{{
			Items: paypalItems(items),

			Amount: &paypal.PurchaseUnitAmount{
				Currency: "USD",
				Value:    minorToDecimal(total(items)),

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
					Currency: "USD",
					Value:    minorToDecimal(total(items)),
				}},
			},
		}}

		ppOrd, err := pp.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, &paypal.ApplicationContext{})
		if err != nil {
			msg := fmt.Sprintf("failed to create paypal order: %v", err)
			return weberr.NewError(fmt.Errorf("creating paypal order: %w", err), msg, http.StatusBadRequest)
		}

		now := time.Now().UTC()
		if err := payment.SetProvider(ctx, db, pay.ID, payment.ProviderPaypal, ppOrd.ID, now); err != nil {
			return fmt.Errorf("binding paypal order[%s] to payment[%s]: %w", ppOrd.ID, pay.ID, err)
		}

		return web.Respond(ctx, w, ppOrd, http.StatusCreated)
	}
}

func HandlePaypalCapture(db *sqlx.DB, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if pp == nil {
			err := errors.New("paypal payments are not configured")
			return weberr.Unavailable(err, err.Error())
		}

		providerID := web.Param(r, "id")

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
		}

		if resp.Status != "COMPLETED" {
			return fmt.Errorf("captured order[%s] with status[%s] different from 'COMPLETED'", providerID, resp.Status)
		}

		pay, err := payment.FetchByProviderID(ctx, db, providerID)
		if err != nil {
			return fmt.Errorf("fetching the payment bound to paypal order[%s]: %w", providerID, err)
		}

		ord, err := Fetch(ctx, db, pay.OrderID)
		if err != nil {
			return fmt.Errorf("fetching order[%s]: %w", pay.OrderID, err)
		}

		if err := fulfill(ctx, db, ord, pay); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// stripeLineItems translates order items into Stripe's line-item
// schema, one descriptor per item, amounts already in minor units.
func stripeLineItems(items []Item) []*stripe.CheckoutSessionLineItemParams {
	li := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, it := range items {
		li = append(li, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(it.Quantity)),

			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(int64(it.Price)),

				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(it.Name),
					Description: stripe.String(it.Description),
				},
			},
		})
	}
	return li
}

func paypalItems(items []Item) []paypal.Item {
	out := make([]paypal.Item, 0, len(items))
	for _, it := range items {
		out = append(out, paypal.Item{
			Quantity:    strconv.Itoa(it.Quantity),
			Name:        it.Name,
			Description: it.Description,

			UnitAmount: &paypal.Money{
				Currency: "USD",
				Value:    minorToDecimal(it.Price),
			},
		})
	}
	return out
}

func total(items []Item) int {
	var tot int
	for _, it := range items {
		tot += it.Price * it.Quantity
	}
	return tot
}

// minorToDecimal renders a minor-unit amount the way PayPal expects
// money values: a decimal string in major units.
func minorToDecimal(amount int) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

func customerEmail(session stripe.CheckoutSession) string {
	if session.CustomerDetails == nil {
		return ""
	}
	return session.CustomerDetails.Email
}
