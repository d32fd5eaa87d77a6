package dbHelper

import (
	"context"
	"time"

	"storefront/database"
	"storefront/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const orderColumns = `id, reference, user_id, shipping_full_name, shipping_address, shipping_contact_number,
	status, idempotency_key, created_at, updated_at`

type orderRow struct {
	ID                    string            `db:"id"`
	Reference             string            `db:"reference"`
	UserID                string            `db:"user_id"`
	ShippingFullName      string            `db:"shipping_full_name"`
	ShippingAddress       string            `db:"shipping_address"`
	ShippingContactNumber string            `db:"shipping_contact_number"`
	Status                model.OrderStatus `db:"status"`
	IdempotencyKey        string            `db:"idempotency_key"`
	CreatedAt             time.Time         `db:"created_at"`
	UpdatedAt             time.Time         `db:"updated_at"`
}

func toOrderRow(o *model.Order) orderRow {
	return orderRow{
		ID:                    o.ID,
		Reference:             o.Reference,
		UserID:                o.UserID,
		ShippingFullName:      o.ShippingInfo.FullName,
		ShippingAddress:       o.ShippingInfo.Address,
		ShippingContactNumber: o.ShippingInfo.ContactNumber,
		Status:                o.Status,
		IdempotencyKey:        o.IdempotencyKey,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

func (r orderRow) toModel() model.Order {
	return model.Order{
		ID:        r.ID,
		Reference: r.Reference,
		UserID:    r.UserID,
		Items:     []model.OrderItem{},
		ShippingInfo: model.ShippingInfo{
			FullName:      r.ShippingFullName,
			Address:       r.ShippingAddress,
			ContactNumber: r.ShippingContactNumber,
		},
		Status:         r.Status,
		IdempotencyKey: r.IdempotencyKey,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type OrderRepo struct {
	db *sqlx.DB
}

// Create inserts the order and its lines and, when clearCart is set, empties
// the owner's cart in the same transaction.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order, clearCartToo bool) error {
	return database.Tx(ctx, r.db, func(tx *sqlx.Tx) error {
		SQL := `INSERT INTO orders(` + orderColumns + `)
				VALUES (:id, :reference, :user_id, :shipping_full_name, :shipping_address, :shipping_contact_number,
				        :status, :idempotency_key, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, SQL, toOrderRow(o)); err != nil {
			if pqCode(err) == uniqueViolation {
				return model.ErrDuplicate
			}
			return err
		}
		itemSQL := `INSERT INTO order_items(order_id, position, product_id, quantity) VALUES ($1, $2, $3, $4)`
		for i, item := range o.Items {
			if _, err := tx.ExecContext(ctx, itemSQL, o.ID, i, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if clearCartToo {
			return clearCart(ctx, tx, o.UserID)
		}
		return nil
	})
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*model.Order, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *OrderRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error) {
	return r.getOne(ctx, `user_id = $1 AND idempotency_key = $2`, userID, key)
}

func (r *OrderRepo) getOne(ctx context.Context, cond string, args ...interface{}) (*model.Order, error) {
	orders, err := r.list(ctx, ` WHERE `+cond, args...)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, model.ErrNotFound
	}
	return &orders[0], nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return r.list(ctx, ` WHERE user_id = $1`, userID)
}

func (r *OrderRepo) List(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, "")
}

// list loads matching orders newest first along with their lines.
func (r *OrderRepo) list(ctx context.Context, where string, args ...interface{}) ([]model.Order, error) {
	SQL := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, id`
	rows := make([]orderRow, 0)
	if err := r.db.SelectContext(ctx, &rows, SQL, args...); err != nil {
		return nil, err
	}
	orders := make([]model.Order, 0, len(rows))
	index := make(map[string]int, len(rows))
	ids := make([]string, 0, len(rows))
	for i, row := range rows {
		orders = append(orders, row.toModel())
		index[row.ID] = i
		ids = append(ids, row.ID)
	}
	if len(ids) == 0 {
		return orders, nil
	}
	itemsSQL := `SELECT order_id, product_id, quantity FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`
	items := make([]struct {
		OrderID   string `db:"order_id"`
		ProductID string `db:"product_id"`
		Quantity  int    `db:"quantity"`
	}, 0)
	if err := r.db.SelectContext(ctx, &items, itemsSQL, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, model.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return orders, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	SQL := `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, SQL, id, status)
	if err != nil {
		return err
	}
	return expectOne(result)
}
