package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ecomstore/api/api/web"
	"github.com/ecomstore/api/api/weberr"
	"github.com/ecomstore/api/core/claims"
	"github.com/ecomstore/api/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		pays, err := FetchVisibleTo(ctx, db, clm)
		if err != nil {
			return fmt.Errorf("fetching payments visible to user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, pays, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		pay, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching payment[%s]: %w", id, err)
		}

		// A payment outside the caller's scope is indistinguishable
		// from a missing one.
		if clm.Role != claims.RoleAdmin && pay.OrderUserID != clm.UserID {
			return weberr.NotFound(errors.New("payment does not belong to the caller"))
		}

		return web.Respond(ctx, w, pay, http.StatusOK)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up PaymentUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		pay, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching payment[%s]: %w", id, err)
		}

		if up.Status != nil {
			if pay.Status == Complete && *up.Status == Pending {
				err := errors.New("a complete payment cannot go back to pending")
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
			pay.Status = *up.Status
		}
		pay.UpdatedAt = time.Now().UTC()

		statusUp := StatusUp{ID: pay.ID, Status: pay.Status, UpdatedAt: pay.UpdatedAt}
		if err := UpdateStatus(ctx, db, statusUp); err != nil {
			return fmt.Errorf("updating payment[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, pay, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		if err := Delete(ctx, db, id); err != nil {
			return fmt.Errorf("deleting payment[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
