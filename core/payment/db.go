package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/ecomstore/api/core/claims"
	"github.com/jmoiron/sqlx"
)

const readColumns = `
	p.payment_id, p.order_id, p.provider, p.provider_id, p.status, p.created_at, p.updated_at,
	o.user_id AS order_user_id, o.status AS order_status`

func Create(ctx context.Context, db sqlx.ExtContext, pay Payment) error {
	const q = `
	INSERT INTO payments (payment_id, order_id, provider, provider_id, status, created_at, updated_at)
	VALUES (:payment_id, :order_id, :provider, :provider_id, :status, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, pay); err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (PaymentOrder, error) {
	q := `
	SELECT` + readColumns + `
	FROM payments AS p
	JOIN orders AS o ON o.order_id = p.order_id
	WHERE p.payment_id = $1`

	var pay PaymentOrder
	if err := sqlx.GetContext(ctx, db, &pay, q, id); err != nil {
		return PaymentOrder{}, err
	}
	return pay, nil
}

// FetchVisibleTo lists the payments the caller may see. Admins see all
// of them, everyone else only those of orders they own. This branch is
// the single place visibility is decided.
func FetchVisibleTo(ctx context.Context, db sqlx.ExtContext, clm claims.Claims) ([]PaymentOrder, error) {
	q := `
	SELECT` + readColumns + `
	FROM payments AS p
	JOIN orders AS o ON o.order_id = p.order_id`

	pays := []PaymentOrder{}
	if clm.Role == claims.RoleAdmin {
		q += ` ORDER BY p.created_at`
		if err := sqlx.SelectContext(ctx, db, &pays, q); err != nil {
			return nil, err
		}
		return pays, nil
	}

	q += ` WHERE o.user_id = $1 ORDER BY p.created_at`
	if err := sqlx.SelectContext(ctx, db, &pays, q, clm.UserID); err != nil {
		return nil, err
	}
	return pays, nil
}

func FetchByOrderID(ctx context.Context, db sqlx.ExtContext, orderID string) (Payment, error) {
	const q = `SELECT * FROM payments WHERE order_id = $1`

	var pay Payment
	if err := sqlx.GetContext(ctx, db, &pay, q, orderID); err != nil {
		return Payment{}, err
	}
	return pay, nil
}

func FetchByProviderID(ctx context.Context, db sqlx.ExtContext, providerID string) (Payment, error) {
	const q = `SELECT * FROM payments WHERE provider_id = $1`

	var pay Payment
	if err := sqlx.GetContext(ctx, db, &pay, q, providerID); err != nil {
		return Payment{}, err
	}
	return pay, nil
}

// SetProvider binds a processor session to the payment row.
func SetProvider(ctx context.Context, db sqlx.ExtContext, id string, provider string, providerID string, now time.Time) error {
	const q = `
	UPDATE payments SET provider = $2, provider_id = $3, updated_at = $4
	WHERE payment_id = $1`

	if _, err := db.ExecContext(ctx, q, id, provider, providerID, now); err != nil {
		return fmt.Errorf("setting payment provider: %w", err)
	}
	return nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `
	UPDATE payments SET status = :status, updated_at = :updated_at
	WHERE payment_id = :payment_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, up); err != nil {
		return fmt.Errorf("updating payment status: %w", err)
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM payments WHERE payment_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}
	return nil
}
