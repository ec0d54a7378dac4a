package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floralane/backoffice/internal/domain/customer"
	"github.com/floralane/backoffice/internal/domain/order"
)

// maxNumberAttempts bounds retries when concurrent settlements race for the
// same order number.
const maxNumberAttempts = 5

const (
	countOrdersTodaySQL = `SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2`

	insertOrderSQL = `INSERT INTO orders (id, number, customer_id, status, total_uah, discount_uah, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, price_uah, total_uah)
		VALUES ($1, $2, $3, $4, $5)`

	getOrderByIDSQL = `SELECT id, number, customer_id, status, total_uah, discount_uah, comment, created_at, updated_at
		FROM orders WHERE id = $1`

	getOrderItemsSQL = `SELECT product_id, quantity, price_uah, total_uah
		FROM order_items WHERE order_id = $1 ORDER BY product_id`

	transitionOrderSQL = `UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`

	currentStatusSQL = `SELECT status FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, now: time.Now}
}

// CreateSettled persists the order, its items and the customer ledger delta
// in a single transaction. The order number is a date-prefixed per-day
// sequence; the unique index on orders.number arbitrates races between
// concurrent submissions and a collision restarts the whole transaction
// with a fresh number.
func (r *OrderRepository) CreateSettled(ctx context.Context, o *order.Order, delta customer.SettlementDelta) error {
	for attempt := range maxNumberAttempts {
		err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			number, err := r.nextOrderNumber(ctx, tx, attempt)
			if err != nil {
				return err
			}

			err = tx.QueryRow(ctx, insertOrderSQL,
				o.ID, number, o.CustomerID, string(o.Status),
				o.TotalUAH, o.DiscountUAH, o.Comment,
			).Scan(&o.CreatedAt, &o.UpdatedAt)
			if err != nil {
				return wrapErr(err, "insert order")
			}
			o.Number = number

			for _, item := range o.Items {
				if _, err := tx.Exec(ctx, insertOrderItemSQL,
					o.ID, item.ProductID, item.Quantity, item.PriceUAH, item.TotalUAH,
				); err != nil {
					return wrapErr(err, fmt.Sprintf("insert order item %s", item.ProductID))
				}
			}

			return applyLedgerDelta(ctx, tx, o.ID, delta)
		})
		if err == nil {
			return nil
		}
		if isUniqueViolation(err, "orders_number_key") {
			continue
		}
		return err
	}

	return errors.Errorf("allocate order number: gave up after %d attempts", maxNumberAttempts)
}

// nextOrderNumber builds YYYYMMDD-NNNN from today's order count. The count
// is racy on its own; the unique index plus the retry loop in CreateSettled
// make the result globally unique. The attempt offset skips numbers already
// lost to a race.
func (r *OrderRepository) nextOrderNumber(ctx context.Context, tx pgx.Tx, attempt int) (string, error) {
	now := r.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var count int
	err := tx.QueryRow(ctx, countOrdersTodaySQL, dayStart, dayStart.AddDate(0, 0, 1)).Scan(&count)
	if err != nil {
		return "", wrapErr(err, "count orders for number")
	}

	return fmt.Sprintf("%s-%04d", now.Format("20060102"), count+1+attempt), nil
}

// GetByID returns an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, wrapErr(err, "get order")
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, wrapErr(err, "get order")
	}

	itemRows, err := r.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, wrapErr(err, "get order items")
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, wrapErr(err, "get order items")
	}

	return &o, nil
}

// Transition moves an order from one status to another with a
// compare-and-set on the current status. A transition into cancelled
// reverses the order's ledger delta within the same transaction.
func (r *OrderRepository) Transition(ctx context.Context, id string, from, to order.Status) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, transitionOrderSQL, id, string(from), string(to))
		if err != nil {
			return wrapErr(err, "update order status")
		}
		if tag.RowsAffected() == 0 {
			var current string
			err := tx.QueryRow(ctx, currentStatusSQL, id).Scan(&current)
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			if err != nil {
				return wrapErr(err, "read order status")
			}
			return order.ErrStatusConflict
		}

		if to == order.StatusCancelled {
			return reverseLedgerDelta(ctx, tx, id)
		}
		return nil
	})
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.Status,
		&o.TotalUAH, &o.DiscountUAH, &o.Comment, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.ProductID, &it.Quantity, &it.PriceUAH, &it.TotalUAH)
	return it, err
}
