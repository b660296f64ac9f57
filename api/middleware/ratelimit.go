package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ecomstore/api/api/web"
	"github.com/ecomstore/api/api/weberr"
	"github.com/ecomstore/api/rate"
)

// RateLimit rejects clients exceeding the per-address budget. Applied to
// the routes reachable without a session: auth and the payment webhook.
func RateLimit(limiter *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.Check(ip) {
				err := errors.New("rate limit exceeded")
				return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
