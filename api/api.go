package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/ecomstore/api/api/background"
	"github.com/ecomstore/api/api/middleware"
	"github.com/ecomstore/api/api/web"
	"github.com/ecomstore/api/config"
	"github.com/ecomstore/api/core/auth"
	"github.com/ecomstore/api/core/cart"
	"github.com/ecomstore/api/core/order"
	"github.com/ecomstore/api/core/payment"
	"github.com/ecomstore/api/core/product"
	"github.com/ecomstore/api/core/user"
	"github.com/ecomstore/api/rate"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	Mailer           order.Mailer
	Background       *background.Background
	Paypal           *paypal.Client
	Stripe           payment.StripeBackend
	StripeCfg        config.Stripe
	SenderEmail      string
	Limiter          *rate.Limiter
	Providers        map[string]auth.Provider
	LoginRedirectURL string
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)

	// Only the routes reachable without a session are rate limited.
	var limited web.Middleware
	if cfg.Limiter != nil {
		limited = middleware.RateLimit(cfg.Limiter)
	}

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users/{id}", user.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPost, "/users", user.HandleCreate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/products/{id}", product.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.DB), authen)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleUpsertItem(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleDeleteItem(cfg.DB), authen)

	// The webhook carries no session; its authenticity comes from the
	// event signature alone.
	a.Handle(http.MethodPost, "/orders/stripe/webhook", order.HandleStripeWebhook(cfg.DB, cfg.Stripe, cfg.Background, cfg.Mailer, cfg.SenderEmail), limited)
	a.Handle(http.MethodPost, "/orders/stripe/{order_id}", order.HandleStripeCheckout(cfg.DB, cfg.Stripe, cfg.StripeCfg), authen)
	a.Handle(http.MethodPost, "/orders/paypal/{order_id}", order.HandlePaypalCheckout(cfg.DB, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(cfg.DB, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/orders", order.HandleCreate(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.DB), authen)

	a.Handle(http.MethodGet, "/payments/{id}", payment.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodGet, "/payments", payment.HandleList(cfg.DB), authen)
	a.Handle(http.MethodPatch, "/payments/{id}", payment.HandleUpdate(cfg.DB), admin)
	a.Handle(http.MethodDelete, "/payments/{id}", payment.HandleDelete(cfg.DB), admin)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
