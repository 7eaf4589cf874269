package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/karuwa-takeaway/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, customer_name, customer_phone, customer_address,
		customer_email, items, subtotal, discount, total, promo_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	getOrderSQL = `SELECT id, customer_name, customer_phone, customer_address, customer_email,
		items, subtotal, discount, total, promo_id, status, created_at
		FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, customer_name, customer_phone, customer_address, customer_email,
		items, subtotal, discount, total, promo_id, status, created_at
		FROM orders ORDER BY created_at DESC`

	// Conditional write: only applies while the persisted status is unchanged.
	updateOrderStatusSQL = `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`

	deleteOrderSQL     = `DELETE FROM orders WHERE id = $1`
	deleteAllOrdersSQL = `DELETE FROM orders`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line item
// snapshots live in a JSONB column; everything queried on has its own column.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.Customer.Name, o.Customer.Phone, o.Customer.Address, o.Customer.Email,
		encodeItems(o.Items), o.Subtotal, o.Discount, o.Total, o.PromoID, o.Status, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get returns one order by id. Returns order.ErrNotFound when it does not exist.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus applies the transition only if the persisted status still
// equals expected, reporting whether the write landed. A zero row count with
// an existing order means a concurrent update won.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, expected, next order.Status) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, next, id, expected)
	if err != nil {
		return false, fmt.Errorf("updating order %q status: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes one order. Returns order.ErrNotFound when it does not exist.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// DeleteAll removes every order and returns how many were deleted.
func (r *OrderRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteAllOrdersSQL)
	if err != nil {
		return 0, fmt.Errorf("deleting all orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		status    string
	)
	err := row.Scan(
		&o.ID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Address, &o.Customer.Email,
		&itemsJSON, &o.Subtotal, &o.Discount, &o.Total, &o.PromoID, &status, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	o.Status = order.Status(status)
	o.CreatedAt = o.CreatedAt.UTC()
	o.Items, err = decodeItems(itemsJSON)
	return o, err
}

// encodeItems serializes line item snapshots for the JSONB column. Prices are
// encoded as strings so NUMERIC exactness survives the round trip.
func encodeItems(items []order.Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("menuItemId")
		e.Str(it.MenuItemID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Str(it.Price.String())
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func decodeItems(data []byte) ([]order.Item, error) {
	var items []order.Item
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		var it order.Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "menuItemId":
				it.MenuItemID, err = d.Str()
			case "name":
				it.Name, err = d.Str()
			case "price":
				var s string
				if s, err = d.Str(); err == nil {
					it.Price, err = decimal.NewFromString(s)
				}
			case "quantity":
				it.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("decoding order items: %w", err)
	}
	return items, nil
}
