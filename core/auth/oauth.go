package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/ecomstore/api/api/web"
	"github.com/ecomstore/api/api/weberr"
	"github.com/ecomstore/api/core/claims"
	"github.com/ecomstore/api/core/user"
	"github.com/ecomstore/api/random"
	"github.com/ecomstore/api/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

const stateKey = "oauth_state"

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	*oidc.Provider
	Config oauth2.Config
}

// MakeProviders discovers the configured OIDC issuers once at startup.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))
	for _, cfg := range cfgs {
		p, err := oidc.NewProvider(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider[%s]: %w", cfg.Name, err)
		}

		provs[cfg.Name] = Provider{
			Provider: p,
			Config: oauth2.Config{
				ClientID:     cfg.Client,
				ClientSecret: cfg.Secret,
				Endpoint:     p.Endpoint(),
				RedirectURL:  cfg.RedirectURL,
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
		}
	}
	return provs, nil
}

func HandleOauthLogin(session *scs.SessionManager, provs map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider %q", web.Param(r, "provider")))
		}

		state := random.String(32)
		session.Put(ctx, stateKey, state)

		http.Redirect(w, r, prov.Config.AuthCodeURL(state), http.StatusFound)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, session *scs.SessionManager, provs map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider %q", web.Param(r, "provider")))
		}

		state := session.PopString(ctx, stateKey)
		if state == "" || state != r.URL.Query().Get("state") {
			return weberr.BadRequest(errors.New("oauth state mismatch"))
		}

		tok, err := prov.Config.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("exchanging oauth code: %w", err))
		}

		rawID, ok := tok.Extra("id_token").(string)
		if !ok {
			return weberr.BadRequest(errors.New("oauth token payload missing id_token"))
		}

		idTok, err := prov.Verifier(&oidc.Config{ClientID: prov.Config.ClientID}).Verify(ctx, rawID)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("verifying id token: %w", err))
		}

		var profile struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idTok.Claims(&profile); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding id token claims: %w", err))
		}

		usr, err := user.FetchByEmail(ctx, db, profile.Email)
		if errors.Is(err, sql.ErrNoRows) {
			usr, err = createOauthUser(ctx, db, profile.Name, profile.Email)
		}
		if err != nil {
			return fmt.Errorf("resolving oauth user[%s]: %w", profile.Email, err)
		}

		if err := login(ctx, session, usr); err != nil {
			return fmt.Errorf("renewing session for user[%s]: %w", usr.ID, err)
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
		return nil
	}
}

func createOauthUser(ctx context.Context, db *sqlx.DB, name string, mail string) (user.User, error) {
	// Social accounts never log in with a password. An unguessable one
	// is stored so the column constraint holds.
	pass, err := random.StringSecure(32)
	if err != nil {
		return user.User{}, fmt.Errorf("generating placeholder password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("generating password hash: %w", err)
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:           validate.GenerateID(),
		Name:         name,
		Email:        mail,
		Role:         claims.RoleUser,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := user.Create(ctx, db, usr); err != nil {
		return user.User{}, fmt.Errorf("creating user[%s]: %w", usr.Email, err)
	}
	return usr, nil
}
