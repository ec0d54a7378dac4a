package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/floralane/backoffice/internal/domain/customer"
)

const (
	customerColumns = `id, name, type, language, loyalty_points, total_orders, total_spent, is_blocked`

	getCustomerByIDSQL = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	// Settlement row first, counters second: the counters are touched iff
	// the settlement insert actually created a row, which makes apply
	// at-most-once per order.
	insertSettlementSQL = `INSERT INTO order_settlements (order_id, customer_id, order_amount, loyalty_points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO NOTHING`

	applyCountersSQL = `UPDATE customers
		SET total_orders = total_orders + 1,
		    total_spent = total_spent + $2,
		    loyalty_points = loyalty_points + $3
		WHERE id = $1 AND NOT is_blocked`

	markReversedSQL = `UPDATE order_settlements
		SET reversed_at = now()
		WHERE order_id = $1 AND reversed_at IS NULL
		RETURNING customer_id, order_amount, loyalty_points`

	reverseCountersSQL = `UPDATE customers
		SET total_orders = total_orders - 1,
		    total_spent = total_spent - $2,
		    loyalty_points = loyalty_points - $3
		WHERE id = $1`

	customerBlockedSQL = `SELECT is_blocked FROM customers WHERE id = $1`
)

var (
	_ customer.Repository = (*CustomerRepository)(nil)
	_ customer.Ledger     = (*CustomerRepository)(nil)
)

// CustomerRepository implements customer.Repository and customer.Ledger
// backed by PostgreSQL. The ledger row-level UPDATEs serialize concurrent
// settlements of the same customer on the database side.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetByID returns a single customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerByIDSQL, id)
	if err != nil {
		return nil, wrapErr(err, "get customer")
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, wrapErr(err, "get customer")
	}
	return &c, nil
}

// Apply applies a settlement delta in its own transaction. Settlement of a
// new order goes through OrderRepository.CreateSettled instead, which runs
// the same ledger statements inside the order transaction.
func (r *CustomerRepository) Apply(ctx context.Context, orderID string, delta customer.SettlementDelta) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return applyLedgerDelta(ctx, tx, orderID, delta)
	})
}

// Reverse reverses a previously applied settlement delta in its own
// transaction. Reversing an order that was never applied, or was already
// reversed, is a no-op.
func (r *CustomerRepository) Reverse(ctx context.Context, orderID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return reverseLedgerDelta(ctx, tx, orderID)
	})
}

// querier is the subset of pgx.Tx the ledger statements need.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// applyLedgerDelta records the settlement and increments the customer
// counters. Re-applying the same order is a no-op.
func applyLedgerDelta(ctx context.Context, q querier, orderID string, delta customer.SettlementDelta) error {
	tag, err := q.Exec(ctx, insertSettlementSQL,
		orderID, delta.CustomerID, delta.OrderAmount, delta.LoyaltyPoints,
	)
	if err != nil {
		return wrapErr(err, "record settlement")
	}
	if tag.RowsAffected() == 0 {
		// Already applied for this order.
		return nil
	}

	tag, err = q.Exec(ctx, applyCountersSQL,
		delta.CustomerID, delta.OrderAmount, delta.LoyaltyPoints,
	)
	if err != nil {
		return wrapErr(err, "apply settlement")
	}
	if tag.RowsAffected() == 0 {
		var blocked bool
		err := q.QueryRow(ctx, customerBlockedSQL, delta.CustomerID).Scan(&blocked)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return customer.ErrNotFound
		case err != nil:
			return wrapErr(err, "check customer")
		case blocked:
			return &customer.BlockedError{CustomerID: delta.CustomerID}
		}
		return errors.Errorf("settlement not applied for customer %s", delta.CustomerID)
	}

	return nil
}

// reverseLedgerDelta decrements the customer counters by the exact amounts
// recorded at settlement. Re-reversing the same order is a no-op.
func reverseLedgerDelta(ctx context.Context, q querier, orderID string) error {
	var (
		customerID string
		amount     decimal.Decimal
		points     int
	)
	err := q.QueryRow(ctx, markReversedSQL, orderID).Scan(&customerID, &amount, &points)
	if errors.Is(err, pgx.ErrNoRows) {
		// Never applied or already reversed.
		return nil
	}
	if err != nil {
		return wrapErr(err, "mark settlement reversed")
	}

	if _, err := q.Exec(ctx, reverseCountersSQL, customerID, amount, points); err != nil {
		return wrapErr(err, "reverse settlement")
	}
	return nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Type, &c.Language,
		&c.LoyaltyPoints, &c.TotalOrders, &c.TotalSpent, &c.Blocked,
	)
	return c, err
}
