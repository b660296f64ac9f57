package cart

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
	"github.com/ecomstore/api/core/product"
	"github.com/ecomstore/api/validate"
	"github.com/jmoiron/sqlx"
)

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		items, err := FetchItems(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching cart items: %w", err)
		}

		c := Cart{UserID: clm.UserID, Items: items}
		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleUpsertItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := product.Fetch(ctx, db, in.ProductID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", in.ProductID, err)
		}

		now := time.Now().UTC()
		item := Item{
			UserID:    clm.UserID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := UpsertItem(ctx, db, item); err != nil {
			return fmt.Errorf("upserting item[%s] for user[%s]: %w", in.ProductID, clm.UserID, err)
		}

		return web.Respond(ctx, w, item, http.StatusOK)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		productID := web.Param(r, "product_id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.BadRequest(err)
		}

		if err := DeleteItem(ctx, db, clm.UserID, productID); err != nil {
			return fmt.Errorf("deleting item[%s] for user[%s]: %w", productID, clm.UserID, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if err := Delete(ctx, db, clm.UserID); err != nil {
			return fmt.Errorf("flushing cart of user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
