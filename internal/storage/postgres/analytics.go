package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floralane/backoffice/internal/domain/analytics"
)

// Every aggregate below excludes cancelled orders, mirroring the ledger
// reversal performed on cancellation so dashboard figures and customer
// counters cannot drift apart.
const (
	totalsSQL = `SELECT
		(SELECT COUNT(*) FROM orders WHERE status <> 'cancelled'),
		(SELECT COALESCE(SUM(total_uah), 0) FROM orders WHERE status <> 'cancelled'),
		(SELECT COUNT(*) FROM customers),
		(SELECT COUNT(*) FROM products)`

	activityBetweenSQL = `SELECT COUNT(*), COALESCE(SUM(total_uah), 0)
		FROM orders
		WHERE status <> 'cancelled' AND created_at >= $1 AND created_at < $2`

	productSalesSQL = `SELECT p.id, p.name, SUM(oi.quantity)::int, SUM(oi.total_uah)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.status <> 'cancelled'
		GROUP BY p.id, p.name`

	customerSalesSQL = `SELECT id, name, total_spent, total_orders
		FROM customers WHERE total_orders > 0`

	ordersBetweenSQL = `SELECT created_at, total_uah
		FROM orders
		WHERE status <> 'cancelled' AND created_at >= $1 AND created_at < $2`

	countrySalesSQL = `SELECT c.name, SUM(oi.total_uah)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		JOIN countries c ON c.id = p.country_id
		WHERE o.status <> 'cancelled'
		GROUP BY c.name`
)

var _ analytics.Repository = (*AnalyticsRepository)(nil)

// AnalyticsRepository implements analytics.Repository backed by PostgreSQL.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository returns an AnalyticsRepository that uses the given pool.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// Totals returns whole-history counts for the dashboard headline.
func (r *AnalyticsRepository) Totals(ctx context.Context) (analytics.Totals, error) {
	var t analytics.Totals
	err := r.pool.QueryRow(ctx, totalsSQL).Scan(&t.Orders, &t.Revenue, &t.Customers, &t.Products)
	if err != nil {
		return analytics.Totals{}, wrapErr(err, "load totals")
	}
	return t, nil
}

// ActivityBetween returns order count and revenue within [from, to).
func (r *AnalyticsRepository) ActivityBetween(ctx context.Context, from, to time.Time) (analytics.Activity, error) {
	var a analytics.Activity
	err := r.pool.QueryRow(ctx, activityBetweenSQL, from, to).Scan(&a.Orders, &a.Revenue)
	if err != nil {
		return analytics.Activity{}, wrapErr(err, "load activity")
	}
	return a, nil
}

// ProductSales returns per-product quantity and revenue aggregates.
func (r *AnalyticsRepository) ProductSales(ctx context.Context) ([]analytics.ProductSales, error) {
	rows, err := r.pool.Query(ctx, productSalesSQL)
	if err != nil {
		return nil, wrapErr(err, "load product sales")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.ProductSales, error) {
		var ps analytics.ProductSales
		err := row.Scan(&ps.ProductID, &ps.Name, &ps.Quantity, &ps.Revenue)
		return ps, err
	})
}

// CustomerSales returns per-customer lifetime figures from the ledger
// counters, which already account for cancellation reversals.
func (r *AnalyticsRepository) CustomerSales(ctx context.Context) ([]analytics.CustomerSales, error) {
	rows, err := r.pool.Query(ctx, customerSalesSQL)
	if err != nil {
		return nil, wrapErr(err, "load customer sales")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.CustomerSales, error) {
		var cs analytics.CustomerSales
		err := row.Scan(&cs.CustomerID, &cs.Name, &cs.TotalSpent, &cs.TotalOrders)
		return cs, err
	})
}

// OrdersBetween returns order time/total projections within [from, to).
func (r *AnalyticsRepository) OrdersBetween(ctx context.Context, from, to time.Time) ([]analytics.OrderPoint, error) {
	rows, err := r.pool.Query(ctx, ordersBetweenSQL, from, to)
	if err != nil {
		return nil, wrapErr(err, "load orders")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.OrderPoint, error) {
		var op analytics.OrderPoint
		err := row.Scan(&op.CreatedAt, &op.TotalUAH)
		return op, err
	})
}

// CountrySales returns revenue grouped by product country of origin.
func (r *AnalyticsRepository) CountrySales(ctx context.Context) ([]analytics.CountrySales, error) {
	rows, err := r.pool.Query(ctx, countrySalesSQL)
	if err != nil {
		return nil, wrapErr(err, "load country sales")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.CountrySales, error) {
		var cs analytics.CountrySales
		err := row.Scan(&cs.Country, &cs.Sales)
		return cs, err
	})
}
