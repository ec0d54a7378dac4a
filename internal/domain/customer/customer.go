// Package customer holds the customer entity and the ledger contract that
// owns its cumulative counters.
package customer

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Type enumerates customer categories.
type Type string

const (
	TypeFlowerShop Type = "flower_shop"
	TypeWholesale  Type = "wholesale"
)

// Customer is a wholesale buyer. LoyaltyPoints, TotalOrders and TotalSpent
// are owned exclusively by the Ledger; nothing else may write them.
type Customer struct {
	ID            string
	Name          string
	Type          Type
	Language      string
	LoyaltyPoints int
	TotalOrders   int
	TotalSpent    decimal.Decimal
	Blocked       bool
}

// BlockedError indicates the customer is blocked and cannot place orders
// until an administrator unblocks them.
type BlockedError struct {
	CustomerID string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("customer %s is blocked", e.CustomerID)
}

// SettlementDelta is the set of counter increments one settled order
// contributes to its customer.
type SettlementDelta struct {
	CustomerID    string
	OrderAmount   decimal.Decimal
	LoyaltyPoints int
}

// DiscountEligible reports whether a customer with the given completed order
// count currently qualifies for the flat repeat-customer discount: every
// time the count stands at a non-zero multiple of every. The order that
// brings the count to the multiple is itself not discounted; the next one is.
func DiscountEligible(totalOrders, every int) bool {
	if every <= 0 || totalOrders <= 0 {
		return false
	}
	return totalOrders%every == 0
}

// Repository defines read operations for customers.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Customer, error)
}

// Ledger applies and reverses settlement deltas. Implementations must be the
// only writers of customer counters, serialize concurrent updates per
// customer, and guarantee at-most-once semantics keyed by order ID: applying
// or reversing the same order twice is a no-op.
type Ledger interface {
	Apply(ctx context.Context, orderID string, delta SettlementDelta) error
	Reverse(ctx context.Context, orderID string) error
}
