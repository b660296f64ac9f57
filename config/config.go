package config

import (
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ecomstore/api/database"
)

// Config is the tree of runtime settings, parsed from the environment
// with the ECOM prefix.
type Config struct {
	conf.Version
	Web       Web
	Cors      Cors
	DB        database.Config
	Email     Email
	RateLimit RateLimit
	Stripe    Stripe
	Paypal    Paypal
	Oauth     Oauth
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type Email struct {
	Host     string `conf:"default:localhost"`
	Port     int    `conf:"default:25"`
	Address  string
	Password string `conf:"mask"`
	From     string `conf:"default:no-reply@ecomstore.dev"`
}

type RateLimit struct {
	Burst  int     `conf:"default:10"`
	Expiry int     `conf:"default:10"`
	RPS    float64 `conf:"default:5"`
}

// Stripe carries the checkout integration settings. When Enabled is
// false the server mounts a no-op backend and the payment endpoints
// answer 503.
type Stripe struct {
	Enabled       bool   `conf:"default:false"`
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL     string `conf:"default:http://localhost:3000/checkout/cancel"`
}

type Paypal struct {
	Enabled  bool   `conf:"default:false"`
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api.sandbox.paypal.com"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:http://localhost:3000"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string `conf:"default:http://localhost:8000/auth/oauth-callback/google"`
}
