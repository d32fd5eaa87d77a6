package dbHelper

import (
	"context"
	"database/sql"
	"errors"

	"storefront/database"
	"storefront/model"

	"github.com/jmoiron/sqlx"
)

type CartRepo struct {
	db *sqlx.DB
}

func (r *CartRepo) GetByUser(ctx context.Context, userID string) (*model.Cart, error) {
	SQL := `SELECT id, user_id, total_price, created_at, updated_at FROM carts WHERE user_id = $1`
	var cart model.Cart
	if err := r.db.GetContext(ctx, &cart, SQL, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	itemsSQL := `SELECT product_id, quantity, price FROM cart_items WHERE cart_id = $1 ORDER BY position`
	cart.CartItems = make([]model.CartItem, 0)
	if err := r.db.SelectContext(ctx, &cart.CartItems, itemsSQL, cart.ID); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save upserts the cart header by user and replaces its lines.
func (r *CartRepo) Save(ctx context.Context, cart *model.Cart) error {
	return database.Tx(ctx, r.db, func(tx *sqlx.Tx) error {
		upsertSQL := `INSERT INTO carts(id, user_id, total_price, created_at, updated_at)
					  VALUES ($1, $2, $3, $4, $5)
					  ON CONFLICT (user_id) DO UPDATE
					  SET total_price = EXCLUDED.total_price, updated_at = EXCLUDED.updated_at
					  RETURNING id`
		var id string
		if err := tx.GetContext(ctx, &id, upsertSQL, cart.ID, cart.UserID, cart.TotalPrice, cart.CreatedAt, cart.UpdatedAt); err != nil {
			return err
		}
		cart.ID = id
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, id); err != nil {
			return err
		}
		insertSQL := `INSERT INTO cart_items(cart_id, position, product_id, quantity, price) VALUES ($1, $2, $3, $4, $5)`
		for i, item := range cart.CartItems {
			if _, err := tx.ExecContext(ctx, insertSQL, id, i, item.ProductID, item.Quantity, item.Price); err != nil {
				return err
			}
		}
		return nil
	})
}

func clearCart(ctx context.Context, tx *sqlx.Tx, userID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)`, userID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE carts SET total_price = 0, updated_at = NOW() WHERE user_id = $1`, userID)
	return err
}
