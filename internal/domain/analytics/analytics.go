// Package analytics computes read-only dashboard views over the order
// history. Cancelled orders are excluded from every aggregate, matching the
// ledger reversal performed on cancellation.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTopN is the ranking size used when the caller does not specify one.
const DefaultTopN = 5

// DashboardStats are the headline figures shown on the dashboard.
// OrdersChange and RevenueChange are day-over-day percentages, 0 when the
// previous day had no activity.
type DashboardStats struct {
	TotalOrders    int
	TotalRevenue   decimal.Decimal
	TotalCustomers int
	TotalProducts  int
	OrdersChange   float64
	RevenueChange  float64
}

// ProductSales is one product's aggregate sales figures.
type ProductSales struct {
	ProductID string
	Name      string
	Quantity  int
	Revenue   decimal.Decimal
}

// CustomerSales is one customer's lifetime figures from the ledger.
type CustomerSales struct {
	CustomerID  string
	Name        string
	TotalSpent  decimal.Decimal
	TotalOrders int
}

// TrendPoint is one time bucket of the sales trend series.
type TrendPoint struct {
	Bucket string
	Sales  decimal.Decimal
	Orders int
}

// CountrySales is revenue attributed to one country of product origin.
type CountrySales struct {
	Country string
	Sales   decimal.Decimal
}

// Totals are whole-history counts used for the dashboard headline.
type Totals struct {
	Orders    int
	Revenue   decimal.Decimal
	Customers int
	Products  int
}

// Activity is the order count and revenue of a single time range.
type Activity struct {
	Orders  int
	Revenue decimal.Decimal
}

// OrderPoint is a minimal order projection used for trend bucketing.
type OrderPoint struct {
	CreatedAt time.Time
	TotalUAH  decimal.Decimal
}

// Repository provides the raw aggregates the service derives views from.
// Implementations must exclude cancelled orders from every result.
type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	ActivityBetween(ctx context.Context, from, to time.Time) (Activity, error)
	ProductSales(ctx context.Context) ([]ProductSales, error)
	CustomerSales(ctx context.Context) ([]CustomerSales, error)
	OrdersBetween(ctx context.Context, from, to time.Time) ([]OrderPoint, error)
	CountrySales(ctx context.Context) ([]CountrySales, error)
}
