package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ecomstore/api/api/web"
	"github.com/ecomstore/api/api/weberr"
	"github.com/ecomstore/api/core/cart"
	"github.com/ecomstore/api/core/claims"
	"github.com/ecomstore/api/core/payment"
	"github.com/ecomstore/api/core/product"
	"github.com/ecomstore/api/database"
	"github.com/ecomstore/api/validate"
	"github.com/jmoiron/sqlx"
)

// HandleCreate places an order: the cart is snapshotted into order
// items and a pending payment row is created alongside. This is the
// only place payments come into existence.
func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		items, err := cart.FetchItems(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching cart items: %w", err)
		}

		if len(items) == 0 {
			err := errors.New("no items to checkout")
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		products := make([]product.Product, 0, len(items))
		for _, it := range items {
			p, err := product.Fetch(ctx, db, it.ProductID)
			if err != nil {
				return fmt.Errorf("fetching product[%s]: %w", it.ProductID, err)
			}
			products = append(products, p)
		}

		now := time.Now().UTC()
		ord := Order{
			ID:        validate.GenerateID(),
			UserID:    clm.UserID,
			Status:    Pending,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := Create(ctx, tx, ord); err != nil {
				return fmt.Errorf("creating order: %w", err)
			}

			for i, it := range items {
				p := products[i]
				item := Item{
					OrderID:     ord.ID,
					ProductID:   p.ID,
					Name:        p.Name,
					Description: p.Description,
					Price:       p.Price,
					Quantity:    it.Quantity,
					CreatedAt:   now,
				}

				if err := CreateItem(ctx, tx, item); err != nil {
					return fmt.Errorf("creating item: %w", err)
				}
				ord.Items = append(ord.Items, item)
			}

			pay := payment.Payment{
				ID:        validate.GenerateID(),
				OrderID:   ord.ID,
				Status:    payment.Pending,
				CreatedAt: now,
				UpdatedAt: now,
			}

			if err := payment.Create(ctx, tx, pay); err != nil {
				return fmt.Errorf("creating payment: %w", err)
			}

			return nil
		})

		if err != nil {
			return fmt.Errorf("placing the order for user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, ord, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var ords []Order
		if clm.Role == claims.RoleAdmin {
			ords, err = FetchAll(ctx, db)
		} else {
			ords, err = FetchByUser(ctx, db, clm.UserID)
		}
		if err != nil {
			return fmt.Errorf("fetching orders: %w", err)
		}

		return web.Respond(ctx, w, ords, http.StatusOK)
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

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching order[%s]: %w", id, err)
		}

		if clm.Role != claims.RoleAdmin && ord.UserID != clm.UserID {
			return weberr.NotFound(errors.New("order does not belong to the caller"))
		}

		if ord.Items, err = FetchItems(ctx, db, ord.ID); err != nil {
			return fmt.Errorf("fetching items of order[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

// fulfill is the single state transition a completed payment triggers:
// the payment goes complete, the order succeeds and the cart is
// flushed, all in one transaction.
func fulfill(ctx context.Context, db *sqlx.DB, ord Order, pay payment.Payment) error {
	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		now := time.Now().UTC()

		payUp := payment.StatusUp{
			ID:        pay.ID,
			Status:    payment.Complete,
			UpdatedAt: now,
		}
		if err := payment.UpdateStatus(ctx, tx, payUp); err != nil {
			return fmt.Errorf("updating payment status: %w", err)
		}

		ordUp := StatusUp{
			ID:        ord.ID,
			Status:    Success,
			UpdatedAt: now,
		}
		if err := UpdateStatus(ctx, tx, ordUp); err != nil {
			return fmt.Errorf("updating order status: %w", err)
		}

		if err := cart.Delete(ctx, tx, ord.UserID); err != nil {
			return fmt.Errorf("flushing cart: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("fulfilling order[%s] bound to payment[%s]: %w", ord.ID, pay.ID, err)
	}
	return nil
}

// authorize loads the order and its payment, ensuring the caller may
// start a checkout: the order must be theirs (or they are an admin) and
// the payment must not already be complete.
func authorize(ctx context.Context, db *sqlx.DB, clm claims.Claims, orderID string) (Order, payment.Payment, error) {
	if err := validate.CheckID(orderID); err != nil {
		return Order{}, payment.Payment{}, weberr.BadRequest(err)
	}

	ord, err := Fetch(ctx, db, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, payment.Payment{}, weberr.NotFound(err)
		}
		return Order{}, payment.Payment{}, fmt.Errorf("fetching order[%s]: %w", orderID, err)
	}

	if clm.Role != claims.RoleAdmin && ord.UserID != clm.UserID {
		return Order{}, payment.Payment{}, weberr.Forbidden(errors.New("order does not belong to the caller"))
	}

	pay, err := payment.FetchByOrderID(ctx, db, ord.ID)
	if err != nil {
		return Order{}, payment.Payment{}, fmt.Errorf("fetching payment of order[%s]: %w", ord.ID, err)
	}

	if pay.Status == payment.Complete {
		return Order{}, payment.Payment{}, weberr.Forbidden(errors.New("payment is already complete"))
	}

	return ord, pay, nil
}
