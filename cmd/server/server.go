package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/ecomstore/api/api"
	"github.com/ecomstore/api/api/background"
	"github.com/ecomstore/api/config"
	"github.com/ecomstore/api/core/auth"
	"github.com/ecomstore/api/core/payment"
	"github.com/ecomstore/api/database"
	"github.com/ecomstore/api/email"
	"github.com/ecomstore/api/rate"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "ECOM"
	var cfg config.Config
	if help, err := conf.Parse(prefix, &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate the database: %w", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour

	mail := email.New(cfg.Email.Address, cfg.Email.Password, cfg.Email.Host, cfg.Email.Port, cfg.Email.From)

	bg := background.New(logger)

	// The processor backends are chosen here, once. Handlers only ever
	// see the injected capability.
	strp := payment.DisabledStripe()
	if cfg.Stripe.Enabled {
		cl := &stripecl.API{}
		cl.Init(cfg.Stripe.APISecret, nil)
		strp = payment.LiveStripe(cl, cfg.Stripe.WebhookSecret)
	}

	var pp *paypal.Client
	if cfg.Paypal.Enabled {
		pp, err = paypal.NewClient(cfg.Paypal.ClientID, cfg.Paypal.Secret, cfg.Paypal.URL)
		if err != nil {
			return fmt.Errorf("failed to build the paypal client: %w", err)
		}

		if _, err = pp.GetAccessToken(context.TODO()); err != nil {
			return fmt.Errorf("failed to get the first paypal access token: %w", err)
		}
	}

	var oauthProvs map[string]auth.Provider
	if google := cfg.Oauth.Google; google.Client != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Oauth.DiscoveryTimeout)
		defer cancel()

		oauthProvs, err = auth.MakeProviders(ctx, []auth.ProviderConfig{
			{Name: "google", Client: google.Client, Secret: google.Secret, URL: google.URL, RedirectURL: google.RedirectURL},
		})
		if err != nil {
			return fmt.Errorf("failed to discover oauth providers: %w", err)
		}
	}

	limiter := rate.NewLimiter(cfg.RateLimit.Burst, cfg.RateLimit.Expiry, cfg.RateLimit.RPS)

	mux := api.APIMux(api.APIConfig{
		CorsOrigin:       cfg.Cors.Origin,
		Log:              logger,
		DB:               db,
		Session:          sessionManager,
		Mailer:           mail,
		Background:       bg,
		Paypal:           pp,
		Stripe:           strp,
		StripeCfg:        cfg.Stripe,
		SenderEmail:      cfg.Email.From,
		Limiter:          limiter,
		Providers:        oauthProvs,
		LoginRedirectURL: cfg.Oauth.LoginRedirectURL,
	})

	srv := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}
