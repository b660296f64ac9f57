package cart

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UpsertItem adds a product to the cart or replaces its quantity.
func UpsertItem(ctx context.Context, db sqlx.ExtContext, item Item) error {
	const q = `
	INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
	VALUES (:user_id, :product_id, :quantity, :created_at, :updated_at)
	ON CONFLICT (user_id, product_id) DO UPDATE SET
		quantity = :quantity,
		updated_at = :updated_at`

	if _, err := sqlx.NamedExecContext(ctx, db, q, item); err != nil {
		return fmt.Errorf("upserting cart item: %w", err)
	}
	return nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, userID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE user_id = $1 ORDER BY created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, userID); err != nil {
		return nil, err
	}
	return items, nil
}

func DeleteItem(ctx context.Context, db sqlx.ExtContext, userID string, productID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	if _, err := db.ExecContext(ctx, q, userID, productID); err != nil {
		return fmt.Errorf("deleting cart item: %w", err)
	}
	return nil
}

// Delete flushes the whole cart of a user.
func Delete(ctx context.Context, db sqlx.ExtContext, userID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("flushing cart: %w", err)
	}
	return nil
}
