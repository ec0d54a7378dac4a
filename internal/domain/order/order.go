package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/floralane/backoffice/internal/domain/customer"
)

// Sentinel errors for order validation and lookup.
var (
	ErrEmptyLines     = errors.New("order lines required")
	ErrNotFound       = errors.New("order not found")
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// InvalidQuantityError indicates a line has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ProductNotFoundError indicates a requested product does not exist in the
// catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// BelowMinimumError indicates the order total is below the configured
// minimum order amount.
type BelowMinimumError struct {
	Total   decimal.Decimal
	Minimum decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("order total %s is below the minimum %s", e.Total, e.Minimum)
}

// InvalidTransitionError indicates a status change the state machine does
// not allow.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// Order is a settled customer order. TotalUAH is fixed at settlement and
// always equals the sum of its items' totals.
type Order struct {
	ID          string
	Number      string
	CustomerID  string
	Status      Status
	TotalUAH    decimal.Decimal
	DiscountUAH decimal.Decimal
	Comment     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []Item
}

// Item is a frozen product snapshot within an order. PriceUAH and TotalUAH
// are computed at settlement time; later product price changes do not alter
// them.
type Item struct {
	ProductID string
	Quantity  int
	PriceUAH  decimal.Decimal
	TotalUAH  decimal.Decimal
}

// Line is one requested position of a proposed order.
type Line struct {
	ProductID string
	Quantity  int
}

// Repository defines persistence operations for orders.
type Repository interface {
	// CreateSettled persists the order, its items and the ledger delta as
	// one atomic unit, assigning a unique order number. Number collisions
	// are retried internally and never surface to the caller.
	CreateSettled(ctx context.Context, o *Order, delta customer.SettlementDelta) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// Transition atomically moves an order from one status to another,
	// reversing the ledger delta when the target is cancelled. It returns
	// ErrStatusConflict when the order is no longer in the from status.
	Transition(ctx context.Context, id string, from, to Status) error
}
