//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestDashboardStats(t *testing.T) {
	resp := doGet(t, "/api/dashboard/stats")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	stats := decodeJSON[dashboardStatsResponse](t, resp)
	if stats.TotalProducts != 6 {
		t.Errorf("totalProducts: got %d, want 6", stats.TotalProducts)
	}
	if stats.TotalOrders < 0 || stats.TotalRevenue < 0 {
		t.Errorf("negative totals: %+v", stats)
	}
}

func TestTopProducts(t *testing.T) {
	resp := doGet(t, "/api/dashboard/top-products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	rows := decodeJSON[[]productSalesResponse](t, resp)
	if len(rows) > 5 {
		t.Errorf("default ranking size: got %d rows, want at most 5", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Quantity > rows[i-1].Quantity {
			t.Errorf("rows not sorted by quantity: %d before %d", rows[i-1].Quantity, rows[i].Quantity)
		}
	}
}

func TestSalesTrend_Week(t *testing.T) {
	resp := doGet(t, "/api/dashboard/sales-trend?period=week")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	points := decodeJSON[[]trendPointResponse](t, resp)
	if len(points) != 7 {
		t.Fatalf("expected 7 daily buckets, got %d", len(points))
	}
	for _, p := range points {
		if p.Bucket == "" {
			t.Error("bucket label is empty")
		}
	}
}

func TestSalesTrend_DefaultPeriod(t *testing.T) {
	resp := doGet(t, "/api/dashboard/sales-trend")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	points := decodeJSON[[]trendPointResponse](t, resp)
	if len(points) != 7 {
		t.Fatalf("expected week default (7 buckets), got %d", len(points))
	}
}

func TestSalesTrend_InvalidPeriod(t *testing.T) {
	resp := doGet(t, "/api/dashboard/sales-trend?period=decade")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSalesByCountry(t *testing.T) {
	resp := doGet(t, "/api/dashboard/sales-by-country")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	rows := decodeJSON[[]countrySalesResponse](t, resp)
	for i := 1; i < len(rows); i++ {
		if rows[i].Sales > rows[i-1].Sales {
			t.Errorf("rows not sorted by sales: %v before %v", rows[i-1].Sales, rows[i].Sales)
		}
	}
}
