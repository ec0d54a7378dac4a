package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floralane/backoffice/internal/domain/customer"
	"github.com/floralane/backoffice/internal/domain/product"
	"github.com/floralane/backoffice/internal/domain/settings"
)

// Service is the order settlement engine. It prices proposed orders,
// computes the loyalty delta they produce, and persists the result through
// the order repository as one atomic unit.
type Service struct {
	products  product.Repository
	customers customer.Repository
	settings  settings.Repository
	orders    Repository
}

// NewService creates a settlement Service with the required dependencies.
func NewService(
	products product.Repository,
	customers customer.Repository,
	settingsRepo settings.Repository,
	orders Repository,
) *Service {
	return &Service{
		products:  products,
		customers: customers,
		settings:  settingsRepo,
		orders:    orders,
	}
}

// CreateOrderRequest holds the input for settling a new order.
type CreateOrderRequest struct {
	CustomerID string
	Lines      []Line
	Comment    string
}

// CreateOrder validates the proposed order, prices every line against the
// catalog, applies the repeat-customer discount when the customer is
// currently eligible, computes loyalty accrual, and persists the order
// together with its ledger delta. No state is written before all checks
// pass.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}

	ids := make([]string, len(req.Lines))
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: line.ProductID}
		}
		ids[i] = line.ProductID
	}

	cfg, err := settings.Load(ctx, s.settings)
	if err != nil {
		return nil, err
	}

	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "get customer")
	}
	if cust.Blocked {
		return nil, &customer.BlockedError{CustomerID: cust.ID}
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Price every line against the catalog snapshot. Line totals are
	// rounded half-up to 2 decimal places; the order total is the exact
	// sum of the rounded line totals, so the two never drift apart.
	items := make([]Item, len(req.Lines))
	subtotal := decimal.Zero
	for i, line := range req.Lines {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}

		unit := unitPriceUAH(p, cfg.UsdRate)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)

		items[i] = Item{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			PriceUAH:  unit,
			TotalUAH:  lineTotal,
		}
		subtotal = subtotal.Add(lineTotal)
	}
	subtotal = subtotal.Round(2)

	if subtotal.LessThan(cfg.MinOrder) {
		return nil, &BelowMinimumError{Total: subtotal, Minimum: cfg.MinOrder}
	}

	// Repeat-customer discount is forward-looking: eligibility earned by a
	// previous order reduces this one, never the order that earned it.
	total := subtotal
	discount := decimal.Zero
	if customer.DiscountEligible(cust.TotalOrders, cfg.DiscountOrdersCount) {
		discount = decimal.Min(cfg.DiscountAmount, subtotal).Round(2)
		total = subtotal.Sub(discount)
	}

	points := loyaltyPoints(total, cfg.LoyaltyThreshold)
	if cust.TotalOrders == 0 {
		points += cfg.LoyaltyGiftPoints
	}

	o := &Order{
		ID:          uuid.New().String(),
		CustomerID:  cust.ID,
		Status:      StatusNew,
		TotalUAH:    total,
		DiscountUAH: discount,
		Comment:     req.Comment,
		Items:       items,
	}
	delta := customer.SettlementDelta{
		CustomerID:    cust.ID,
		OrderAmount:   total,
		LoyaltyPoints: points,
	}

	if err := s.orders.CreateSettled(ctx, o, delta); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// GetOrder returns a single order with its items.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// TransitionStatus moves an order to a new status if the state machine
// allows it. Moving into cancelled reverses the order's ledger delta; both
// the status change and the reversal happen atomically in the repository.
func (s *Service) TransitionStatus(ctx context.Context, orderID string, to Status) (*Order, error) {
	if !to.Valid() || to == StatusNew {
		return nil, &InvalidTransitionError{To: to}
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, &InvalidTransitionError{From: o.Status, To: to}
	}

	if err := s.orders.Transition(ctx, orderID, o.Status, to); err != nil {
		return nil, errors.Wrap(err, "transition order")
	}

	return s.orders.GetByID(ctx, orderID)
}

// unitPriceUAH picks the product's UAH price, falling back to the USD price
// converted at rate. The result is rounded half-up to 2 decimal places so
// the stored snapshot is an exact monetary value.
func unitPriceUAH(p product.Product, rate decimal.Decimal) decimal.Decimal {
	if p.PriceUAH.Valid {
		return p.PriceUAH.Decimal.Round(2)
	}
	return p.PriceUSD.Mul(rate).Round(2)
}

// loyaltyPoints is floor(amount / threshold): one point per full threshold
// unit spent, the fractional remainder is dropped.
func loyaltyPoints(amount, threshold decimal.Decimal) int {
	if threshold.IsZero() {
		return 0
	}
	return int(amount.Div(threshold).Floor().IntPart())
}
