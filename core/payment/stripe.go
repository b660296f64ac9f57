package payment

import (
	"errors"

	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// ErrDisabled is returned by the no-op backend mounted when the Stripe
// integration is switched off. Handlers surface it as 503.
var ErrDisabled = errors.New("stripe payments are not configured")

// StripeBackend is the capability the checkout and webhook handlers
// depend on. The concrete backend is chosen once at startup, so no
// handler ever branches on a configuration flag.
type StripeBackend interface {
	Enabled() bool
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type liveStripe struct {
	api           *stripecl.API
	webhookSecret string
}

// LiveStripe wraps an initialized Stripe client and the shared webhook
// secret used to verify inbound event signatures.
func LiveStripe(api *stripecl.API, webhookSecret string) StripeBackend {
	return &liveStripe{api: api, webhookSecret: webhookSecret}
}

func (s *liveStripe) Enabled() bool { return true }

func (s *liveStripe) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return s.api.CheckoutSessions.New(params)
}

func (s *liveStripe) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
}

type disabledStripe struct{}

func DisabledStripe() StripeBackend { return disabledStripe{} }

func (disabledStripe) Enabled() bool { return false }

func (disabledStripe) NewCheckoutSession(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return nil, ErrDisabled
}

func (disabledStripe) ConstructEvent([]byte, string) (stripe.Event, error) {
	return stripe.Event{}, ErrDisabled
}
