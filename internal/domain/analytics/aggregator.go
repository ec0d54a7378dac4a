package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Period selects the window and bucket size of a sales trend series.
type Period string

const (
	PeriodDay     Period = "day"     // 24 hourly buckets ending now
	PeriodWeek    Period = "week"    // 7 daily buckets ending today
	PeriodMonth   Period = "month"   // 30 daily buckets ending today
	PeriodQuarter Period = "quarter" // 12 weekly buckets ending this week
	PeriodYear    Period = "year"    // 12 monthly buckets ending this month
)

// InvalidPeriodError indicates an unknown trend period value.
type InvalidPeriodError struct {
	Period Period
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid trend period %q", e.Period)
}

// Service derives dashboard views from the analytics repository. All
// operations are read-only.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an analytics Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// DashboardStats returns the headline totals plus day-over-day order and
// revenue deltas. A delta against a zero previous day is reported as 0.
func (s *Service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load totals")
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	cur, err := s.repo.ActivityBetween(ctx, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, errors.Wrap(err, "load today activity")
	}
	prev, err := s.repo.ActivityBetween(ctx, yesterday, today)
	if err != nil {
		return nil, errors.Wrap(err, "load yesterday activity")
	}

	return &DashboardStats{
		TotalOrders:    totals.Orders,
		TotalRevenue:   totals.Revenue,
		TotalCustomers: totals.Customers,
		TotalProducts:  totals.Products,
		OrdersChange:   percentChange(float64(cur.Orders), float64(prev.Orders)),
		RevenueChange:  percentChange(cur.Revenue.InexactFloat64(), prev.Revenue.InexactFloat64()),
	}, nil
}

// TopProducts returns the n best-selling products by quantity. Ties are
// broken by revenue descending, then product ID ascending, so the ranking
// is fully deterministic. n <= 0 selects DefaultTopN.
func (s *Service) TopProducts(ctx context.Context, n int) ([]ProductSales, error) {
	rows, err := s.repo.ProductSales(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load product sales")
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Quantity != rows[j].Quantity {
			return rows[i].Quantity > rows[j].Quantity
		}
		if !rows[i].Revenue.Equal(rows[j].Revenue) {
			return rows[i].Revenue.GreaterThan(rows[j].Revenue)
		}
		return rows[i].ProductID < rows[j].ProductID
	})

	return limit(rows, n), nil
}

// TopCustomers returns the n top customers by lifetime spend. Ties are
// broken by order count descending, then customer ID ascending. n <= 0
// selects DefaultTopN.
func (s *Service) TopCustomers(ctx context.Context, n int) ([]CustomerSales, error) {
	rows, err := s.repo.CustomerSales(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load customer sales")
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].TotalSpent.Equal(rows[j].TotalSpent) {
			return rows[i].TotalSpent.GreaterThan(rows[j].TotalSpent)
		}
		if rows[i].TotalOrders != rows[j].TotalOrders {
			return rows[i].TotalOrders > rows[j].TotalOrders
		}
		return rows[i].CustomerID < rows[j].CustomerID
	})

	return limit(rows, n), nil
}

// SalesTrend returns a chronologically ascending, zero-filled series of
// sales sums and order counts bucketed according to the period.
func (s *Service) SalesTrend(ctx context.Context, period Period) ([]TrendPoint, error) {
	spec, err := bucketSpec(period, s.now().UTC())
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.OrdersBetween(ctx, spec.starts[0], spec.end)
	if err != nil {
		return nil, errors.Wrap(err, "load orders")
	}

	points := make([]TrendPoint, len(spec.starts))
	for i, start := range spec.starts {
		points[i] = TrendPoint{
			Bucket: start.Format(spec.layout),
			Sales:  decimal.Zero,
			Orders: 0,
		}
	}

	for _, o := range orders {
		t := o.CreatedAt.UTC()
		if t.Before(spec.starts[0]) || !t.Before(spec.end) {
			continue
		}
		// Index of the last bucket starting at or before t.
		idx := sort.Search(len(spec.starts), func(i int) bool {
			return spec.starts[i].After(t)
		}) - 1
		points[idx].Sales = points[idx].Sales.Add(o.TotalUAH)
		points[idx].Orders++
	}

	return points, nil
}

// SalesByCountry returns revenue grouped by product country of origin,
// ordered by revenue descending with country name as the tie-break.
func (s *Service) SalesByCountry(ctx context.Context) ([]CountrySales, error) {
	rows, err := s.repo.CountrySales(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load country sales")
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Sales.Equal(rows[j].Sales) {
			return rows[i].Sales.GreaterThan(rows[j].Sales)
		}
		return rows[i].Country < rows[j].Country
	})

	return rows, nil
}

// trendSpec holds the precomputed bucket boundaries of one trend request.
type trendSpec struct {
	starts []time.Time
	end    time.Time
	layout string
}

// bucketSpec builds the bucket boundaries for a period, ending at the
// bucket containing now.
func bucketSpec(period Period, now time.Time) (trendSpec, error) {
	var (
		count  int
		layout string
		first  time.Time
		step   func(t time.Time, i int) time.Time
	)

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case PeriodDay:
		count, layout = 24, "15:04"
		first = now.Truncate(time.Hour).Add(-23 * time.Hour)
		step = func(t time.Time, i int) time.Time { return t.Add(time.Duration(i) * time.Hour) }
	case PeriodWeek:
		count, layout = 7, "2006-01-02"
		first = day.AddDate(0, 0, -6)
		step = func(t time.Time, i int) time.Time { return t.AddDate(0, 0, i) }
	case PeriodMonth:
		count, layout = 30, "2006-01-02"
		first = day.AddDate(0, 0, -29)
		step = func(t time.Time, i int) time.Time { return t.AddDate(0, 0, i) }
	case PeriodQuarter:
		count, layout = 12, "2006-01-02"
		first = day.AddDate(0, 0, -7*11)
		step = func(t time.Time, i int) time.Time { return t.AddDate(0, 0, 7*i) }
	case PeriodYear:
		count, layout = 12, "2006-01"
		first = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
		step = func(t time.Time, i int) time.Time { return t.AddDate(0, i, 0) }
	default:
		return trendSpec{}, &InvalidPeriodError{Period: period}
	}

	starts := make([]time.Time, count)
	for i := range count {
		starts[i] = step(first, i)
	}

	return trendSpec{
		starts: starts,
		end:    step(first, count),
		layout: layout,
	}, nil
}

// percentChange is (current-previous)/previous*100, defined as 0 when the
// previous value is 0. The result is rounded to 2 decimal places.
func percentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return math.Round((current-previous)/previous*100*100) / 100
}

func limit[T any](rows []T, n int) []T {
	if n <= 0 {
		n = DefaultTopN
	}
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
