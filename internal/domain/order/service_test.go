package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floralane/backoffice/internal/domain/customer"
	"github.com/floralane/backoffice/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[string]product.Product
	err  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockCustomerRepo struct {
	customer *customer.Customer
	err      error
}

func (m *mockCustomerRepo) GetByID(_ context.Context, _ string) (*customer.Customer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.customer, nil
}

type mockSettingsRepo struct {
	values map[string]string
	err    error
}

func (m *mockSettingsRepo) Values(_ context.Context) (map[string]string, error) {
	return m.values, m.err
}

type mockOrderRepo struct {
	lastOrder      *Order
	lastDelta      customer.SettlementDelta
	byID           map[string]*Order
	createErr      error
	transitionErr  error
	transitionFrom Status
	transitionTo   Status
}

func (m *mockOrderRepo) CreateSettled(_ context.Context, o *Order, delta customer.SettlementDelta) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.lastOrder = o
	m.lastDelta = delta
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) Transition(_ context.Context, id string, from, to Status) error {
	if m.transitionErr != nil {
		return m.transitionErr
	}
	m.transitionFrom, m.transitionTo = from, to
	if o, ok := m.byID[id]; ok {
		o.Status = to
	}
	return nil
}

// --- Helpers ---

func defaultSettings() map[string]string {
	return map[string]string{
		"usd_rate":              "41.50",
		"min_order":             "1000",
		"loyalty_threshold":     "1000",
		"loyalty_gift_points":   "5",
		"discount_orders_count": "10",
		"discount_amount":       "500",
	}
}

func uahProduct(id, priceUAH string) product.Product {
	return product.Product{
		ID:       id,
		Name:     id,
		PriceUSD: decimal.RequireFromString("1.00"),
		PriceUAH: decimal.NewNullDecimal(decimal.RequireFromString(priceUAH)),
	}
}

func usdProduct(id, priceUSD string) product.Product {
	return product.Product{
		ID:       id,
		Name:     id,
		PriceUSD: decimal.RequireFromString(priceUSD),
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductRepo{byID: byID}
}

func repeatCustomer(totalOrders int) *mockCustomerRepo {
	return &mockCustomerRepo{customer: &customer.Customer{
		ID:          "c1",
		Name:        "Kvity Lviv",
		Type:        customer.TypeFlowerShop,
		TotalOrders: totalOrders,
	}}
}

func newTestService(
	products *mockProductRepo,
	customers *mockCustomerRepo,
	settings map[string]string,
	orders *mockOrderRepo,
) *Service {
	return NewService(products, customers, &mockSettingsRepo{values: settings}, orders)
}

// --- CreateOrder tests ---

func TestCreateOrder_EmptyLines(t *testing.T) {
	svc := newTestService(newProductRepo(), repeatCustomer(3), defaultSettings(), &mockOrderRepo{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{CustomerID: "c1"})
	require.ErrorIs(t, err, ErrEmptyLines)
}

func TestCreateOrder_InvalidQuantity(t *testing.T) {
	svc := newTestService(
		newProductRepo(uahProduct("rose", "35.50")),
		repeatCustomer(3), defaultSettings(), &mockOrderRepo{},
	)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "rose", Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "rose", iqErr.ProductID)
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	svc := newTestService(newProductRepo(), repeatCustomer(3), defaultSettings(), &mockOrderRepo{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "missing", Quantity: 10}},
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
}

func TestCreateOrder_BlockedCustomer(t *testing.T) {
	customers := &mockCustomerRepo{customer: &customer.Customer{ID: "c1", Blocked: true}}
	svc := newTestService(
		newProductRepo(uahProduct("rose", "35.50")),
		customers, defaultSettings(), &mockOrderRepo{},
	)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "rose", Quantity: 100}},
	})

	var blocked *customer.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "c1", blocked.CustomerID)
}

func TestCreateOrder_BelowMinimum(t *testing.T) {
	svc := newTestService(
		newProductRepo(uahProduct("rose", "35.50")),
		repeatCustomer(3), defaultSettings(), &mockOrderRepo{},
	)

	// 10 * 35.50 = 355.00, below the 1000 minimum.
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "rose", Quantity: 10}},
	})

	var bmErr *BelowMinimumError
	require.ErrorAs(t, err, &bmErr)
	assert.True(t, decimal.RequireFromString("355.00").Equal(bmErr.Total))
	assert.True(t, decimal.RequireFromString("1000").Equal(bmErr.Minimum))
}

func TestCreateOrder_UsesUAHPriceWhenSet(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(
		newProductRepo(uahProduct("rose", "35.50")),
		repeatCustomer(3), defaultSettings(), repo,
	)

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "rose", Quantity: 40}},
	})

	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.True(t, decimal.RequireFromString("35.50").Equal(o.Items[0].PriceUAH))
	assert.True(t, decimal.RequireFromString("1420.00").Equal(o.TotalUAH))
	assert.Equal(t, StatusNew, o.Status)
	assert.Same(t, o, repo.lastOrder)
}

func TestCreateOrder_ConvertsUSDFallback(t *testing.T) {
	svc := newTestService(
		newProductRepo(usdProduct("explorer", "1.10")),
		repeatCustomer(3), defaultSettings(), &mockOrderRepo{},
	)

	// 1.10 USD * 41.50 = 45.65 UAH, 30 stems = 1369.50.
	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "explorer", Quantity: 30}},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("45.65").Equal(o.Items[0].PriceUAH))
	assert.True(t, decimal.RequireFromString("1369.50").Equal(o.TotalUAH))
}

func TestCreateOrder_RoundsConvertedPriceHalfUp(t *testing.T) {
	settings := defaultSettings()
	settings["min_order"] = "0"
	svc := newTestService(
		newProductRepo(usdProduct("freedom", "0.85")),
		repeatCustomer(3), settings, &mockOrderRepo{},
	)

	// 0.85 * 41.50 = 35.275, rounds half-up to 35.28 per unit.
	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "freedom", Quantity: 3}},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("35.28").Equal(o.Items[0].PriceUAH))
	assert.True(t, decimal.RequireFromString("105.84").Equal(o.TotalUAH))
}

func TestCreateOrder_TotalEqualsSumOfItems(t *testing.T) {
	svc := newTestService(
		newProductRepo(
			usdProduct("freedom", "0.85"),
			uahProduct("tulip", "17.80"),
			usdProduct("carnation", "0.38"),
		),
		repeatCustomer(3), defaultSettings(), &mockOrderRepo{},
	)

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines: []Line{
			{ProductID: "freedom", Quantity: 25},
			{ProductID: "tulip", Quantity: 50},
			{ProductID: "carnation", Quantity: 20},
		},
	})

	require.NoError(t, err)
	sum := decimal.Zero
	for _, it := range o.Items {
		assert.True(t, it.PriceUAH.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2).Equal(it.TotalUAH))
		sum = sum.Add(it.TotalUAH)
	}
	assert.True(t, sum.Equal(o.TotalUAH))
}

func TestCreateOrder_LoyaltyPointsFloored(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(
		newProductRepo(uahProduct("rose", "25.00")),
		repeatCustomer(3), defaultSettings(), repo,
	)

	// 100 * 25.00 = 2500.00 at threshold 1000 earns exactly 2 points.
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "rose", Quantity: 100}},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, repo.lastDelta.LoyaltyPoints)
	assert.Equal(t, "c1", repo.lastDelta.CustomerID)
	assert.True(t, decimal.RequireFromString("2500.00").Equal(repo.lastDelta.OrderAmount))
}

func TestCreateOrder_FirstOrderGiftPoints(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(
		newProductRepo(uahProduct("rose", "25.00")),
		repeatCustomer(0), defaultSettings(), repo,
	)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "rose", Quantity: 100}},
	})

	require.NoError(t, err)
	// 2 earned + 5 welcome bonus.
	assert.Equal(t, 7, repo.lastDelta.LoyaltyPoints)
}

func TestCreateOrder_DiscountOnEligibleCustomer(t *testing.T) {
	svc := newTestService(
		newProductRepo(uahProduct("rose", "35.50")),
		repeatCustomer(10), defaultSettings(), &mockOrderRepo{},
	)

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "rose", Quantity: 40}},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("500").Equal(o.DiscountUAH))
	assert.True(t, decimal.RequireFromString("920.00").Equal(o.TotalUAH))
}

func TestCreateOrder_NoDiscountOnOrderThatEarnsEligibility(t *testing.T) {
	for _, totalOrders := range []int{9, 11} {
		svc := newTestService(
			newProductRepo(uahProduct("rose", "35.50")),
			repeatCustomer(totalOrders), defaultSettings(), &mockOrderRepo{},
		)

		o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
			CustomerID: "c1",
			Lines:      []Line{{ProductID: "rose", Quantity: 40}},
		})

		require.NoError(t, err)
		assert.True(t, decimal.Zero.Equal(o.DiscountUAH), "totalOrders=%d", totalOrders)
		assert.True(t, decimal.RequireFromString("1420.00").Equal(o.TotalUAH))
	}
}

func TestCreateOrder_DiscountCappedAtSubtotal(t *testing.T) {
	settings := defaultSettings()
	settings["discount_amount"] = "5000"
	svc := newTestService(
		newProductRepo(uahProduct("rose", "35.50")),
		repeatCustomer(10), settings, &mockOrderRepo{},
	)

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "rose", Quantity: 40}},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1420.00").Equal(o.DiscountUAH))
	assert.True(t, decimal.Zero.Equal(o.TotalUAH))
}

func TestCreateOrder_RepositoryError(t *testing.T) {
	svc := newTestService(
		newProductRepo(uahProduct("rose", "35.50")),
		repeatCustomer(3), defaultSettings(),
		&mockOrderRepo{createErr: errors.New("db write failed")},
	)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Lines:      []Line{{ProductID: "rose", Quantity: 40}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

// --- TransitionStatus tests ---

func TestTransitionStatus_ForwardStep(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{
		"o1": {ID: "o1", Status: StatusNew},
	}}
	svc := newTestService(newProductRepo(), repeatCustomer(0), defaultSettings(), repo)

	o, err := svc.TransitionStatus(context.Background(), "o1", StatusConfirmed)

	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, StatusNew, repo.transitionFrom)
	assert.Equal(t, StatusConfirmed, repo.transitionTo)
}

func TestTransitionStatus_CancelFromProcessing(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{
		"o1": {ID: "o1", Status: StatusProcessing},
	}}
	svc := newTestService(newProductRepo(), repeatCustomer(0), defaultSettings(), repo)

	o, err := svc.TransitionStatus(context.Background(), "o1", StatusCancelled)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestTransitionStatus_RejectsSkippedStep(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{
		"o1": {ID: "o1", Status: StatusNew},
	}}
	svc := newTestService(newProductRepo(), repeatCustomer(0), defaultSettings(), repo)

	_, err := svc.TransitionStatus(context.Background(), "o1", StatusShipped)

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, StatusNew, itErr.From)
	assert.Equal(t, StatusShipped, itErr.To)
}

func TestTransitionStatus_RejectsTerminalOrder(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{
		"o1": {ID: "o1", Status: StatusCompleted},
	}}
	svc := newTestService(newProductRepo(), repeatCustomer(0), defaultSettings(), repo)

	_, err := svc.TransitionStatus(context.Background(), "o1", StatusCancelled)

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
}

func TestTransitionStatus_RejectsUnknownTarget(t *testing.T) {
	svc := newTestService(newProductRepo(), repeatCustomer(0), defaultSettings(), &mockOrderRepo{})

	_, err := svc.TransitionStatus(context.Background(), "o1", Status("lost"))

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
}

func TestTransitionStatus_OrderNotFound(t *testing.T) {
	svc := newTestService(newProductRepo(), repeatCustomer(0), defaultSettings(), &mockOrderRepo{})

	_, err := svc.TransitionStatus(context.Background(), "missing", StatusConfirmed)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionStatus_ConflictFromRepository(t *testing.T) {
	repo := &mockOrderRepo{
		byID:          map[string]*Order{"o1": {ID: "o1", Status: StatusNew}},
		transitionErr: ErrStatusConflict,
	}
	svc := newTestService(newProductRepo(), repeatCustomer(0), defaultSettings(), repo)

	_, err := svc.TransitionStatus(context.Background(), "o1", StatusConfirmed)
	require.ErrorIs(t, err, ErrStatusConflict)
}
