//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var (
	uuidPattern        = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	orderNumberPattern = regexp.MustCompile(`^\d{8}-\d{4}$`)
)

func TestCreateOrder_NoAuth(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/orders", createOrderRequest{
		CustomerID: "cust-kvity-lviv",
		Items:      []orderItemRequest{{ProductID: "rose-freedom-60", Quantity: 40}},
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_InvalidKey(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/orders", createOrderRequest{
		CustomerID: "cust-kvity-lviv",
		Items:      []orderItemRequest{{ProductID: "rose-freedom-60", Quantity: 40}},
	}, "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{CustomerID: "cust-kvity-lviv"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		CustomerID: "cust-kvity-lviv",
		Items:      []orderItemRequest{{ProductID: "orchid-unknown", Quantity: 40}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_BelowMinimum(t *testing.T) {
	// 10 * 17.80 = 178.00, below the seeded 1000 UAH minimum.
	resp := doPost(t, "/api/orders", createOrderRequest{
		CustomerID: "cust-kvity-lviv",
		Items:      []orderItemRequest{{ProductID: "tulip-strong-gold", Quantity: 10}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_BlockedCustomer(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		CustomerID: "cust-blocked-demo",
		Items:      []orderItemRequest{{ProductID: "rose-freedom-60", Quantity: 40}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_UAHPrice(t *testing.T) {
	// 40 * 35.50 UAH = 1420.00, no conversion involved.
	order := createOrder(t, "cust-kvity-lviv", "rose-freedom-60", 40)

	if !uuidPattern.MatchString(order.ID) {
		t.Errorf("order ID %q is not a valid UUID", order.ID)
	}
	if !orderNumberPattern.MatchString(order.Number) {
		t.Errorf("order number %q does not match YYYYMMDD-NNNN", order.Number)
	}
	if order.Status != "new" {
		t.Errorf("status: got %q, want %q", order.Status, "new")
	}
	if order.TotalUAH != 1420 {
		t.Errorf("total: got %v, want 1420", order.TotalUAH)
	}
	if order.DiscountUAH != 0 {
		t.Errorf("discount: got %v, want 0", order.DiscountUAH)
	}
	if len(order.Items) != 1 || order.Items[0].PriceUAH != 35.5 {
		t.Errorf("items: got %+v", order.Items)
	}
}

func TestCreateOrder_USDFallback(t *testing.T) {
	// rose-explorer-70 has no UAH price: 1.10 USD * 41.50 = 45.65 UAH,
	// 30 stems = 1369.50.
	order := createOrder(t, "cust-kvity-lviv", "rose-explorer-70", 30)

	if order.Items[0].PriceUAH != 45.65 {
		t.Errorf("unit price: got %v, want 45.65", order.Items[0].PriceUAH)
	}
	if order.TotalUAH != 1369.5 {
		t.Errorf("total: got %v, want 1369.5", order.TotalUAH)
	}
}

func TestCreateOrder_TotalEqualsItemSum(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		CustomerID: "cust-kvity-lviv",
		Items: []orderItemRequest{
			{ProductID: "rose-freedom-60", Quantity: 25},
			{ProductID: "tulip-strong-gold", Quantity: 50},
		},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	var sum float64
	for _, it := range order.Items {
		sum += it.TotalUAH
	}
	if sum != order.TotalUAH+order.DiscountUAH {
		t.Errorf("item sum %v != total %v + discount %v", sum, order.TotalUAH, order.DiscountUAH)
	}
}

func TestGetOrder(t *testing.T) {
	created := createOrder(t, "cust-kvity-lviv", "rose-freedom-60", 40)

	resp := doGet(t, "/api/orders/"+created.ID)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.ID != created.ID {
		t.Errorf("id: got %q, want %q", order.ID, created.ID)
	}
	if order.TotalUAH != created.TotalUAH {
		t.Errorf("total: got %v, want %v", order.TotalUAH, created.TotalUAH)
	}
	if len(order.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(order.Items))
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	resp := doGet(t, "/api/orders/00000000-0000-0000-0000-000000000000")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestOrderLifecycle_FullForwardPath(t *testing.T) {
	order := createOrder(t, "cust-kvity-lviv", "rose-freedom-60", 40)

	for _, status := range []string{"confirmed", "processing", "shipped", "completed"} {
		resp := transitionOrder(t, order.ID, status)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("transition to %s: expected 200, got %d", status, resp.StatusCode)
		}
		got := decodeJSON[orderResponse](t, resp)
		resp.Body.Close()

		if got.Status != status {
			t.Fatalf("status after transition: got %q, want %q", got.Status, status)
		}
	}
}

func TestOrderLifecycle_SkippedStepRejected(t *testing.T) {
	order := createOrder(t, "cust-kvity-lviv", "rose-freedom-60", 40)

	resp := transitionOrder(t, order.ID, "shipped")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestOrderLifecycle_TerminalOrderImmutable(t *testing.T) {
	order := createOrder(t, "cust-kvity-lviv", "rose-freedom-60", 40)

	resp := transitionOrder(t, order.ID, "cancelled")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.StatusCode)
	}

	// Cancelled is terminal: a second cancel and a forward step must both fail.
	for _, status := range []string{"cancelled", "confirmed"} {
		resp := transitionOrder(t, order.ID, status)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("transition to %s: expected 409, got %d", status, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestOrderLifecycle_UnknownStatusRejected(t *testing.T) {
	order := createOrder(t, "cust-kvity-lviv", "rose-freedom-60", 40)

	resp := transitionOrder(t, order.ID, "archived")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}
