// Package settings turns the flat key/value settings table into a typed,
// validated configuration for the settlement engine.
package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Setting keys recognised by the settlement engine.
const (
	KeyUsdRate             = "usd_rate"
	KeyMinOrder            = "min_order"
	KeyLoyaltyThreshold    = "loyalty_threshold"
	KeyLoyaltyGiftPoints   = "loyalty_gift_points"
	KeyDiscountOrdersCount = "discount_orders_count"
	KeyDiscountAmount      = "discount_amount"
)

// ConfigurationError indicates a required setting is missing or malformed.
// It signals a deployment defect, not a user error.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("setting %s: %s", e.Key, e.Reason)
}

// Settings holds every numeric setting the settlement engine depends on,
// parsed and validated once per load instead of ad hoc at each use.
type Settings struct {
	// UsdRate converts USD prices into UAH when a product has no UAH price.
	UsdRate decimal.Decimal
	// MinOrder is the minimum allowed order total in UAH.
	MinOrder decimal.Decimal
	// LoyaltyThreshold is the UAH amount that earns one loyalty point.
	LoyaltyThreshold decimal.Decimal
	// LoyaltyGiftPoints is the one-time bonus granted on a customer's
	// first settled order.
	LoyaltyGiftPoints int
	// DiscountOrdersCount makes a customer discount-eligible on every
	// multiple of this order count.
	DiscountOrdersCount int
	// DiscountAmount is the flat UAH discount for eligible customers.
	DiscountAmount decimal.Decimal
}

// Repository loads raw setting values from storage.
type Repository interface {
	Values(ctx context.Context) (map[string]string, error)
}

// Load fetches raw values from the repository and parses them.
func Load(ctx context.Context, repo Repository) (*Settings, error) {
	values, err := repo.Values(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load settings")
	}
	return Parse(values)
}

// Parse validates the raw key/value mapping and builds a Settings value.
// Every required key must be present and numeric; rates, thresholds and
// counts must be positive, amounts non-negative.
func Parse(values map[string]string) (*Settings, error) {
	var (
		s   Settings
		err error
	)

	if s.UsdRate, err = parseDecimal(values, KeyUsdRate, positive); err != nil {
		return nil, err
	}
	if s.MinOrder, err = parseDecimal(values, KeyMinOrder, nonNegative); err != nil {
		return nil, err
	}
	if s.LoyaltyThreshold, err = parseDecimal(values, KeyLoyaltyThreshold, positive); err != nil {
		return nil, err
	}
	if s.DiscountAmount, err = parseDecimal(values, KeyDiscountAmount, nonNegative); err != nil {
		return nil, err
	}
	if s.LoyaltyGiftPoints, err = parseInt(values, KeyLoyaltyGiftPoints, 0); err != nil {
		return nil, err
	}
	if s.DiscountOrdersCount, err = parseInt(values, KeyDiscountOrdersCount, 1); err != nil {
		return nil, err
	}

	return &s, nil
}

type decimalBound int

const (
	nonNegative decimalBound = iota
	positive
)

func parseDecimal(values map[string]string, key string, bound decimalBound) (decimal.Decimal, error) {
	raw, ok := values[key]
	if !ok {
		return decimal.Zero, &ConfigurationError{Key: key, Reason: "missing"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ConfigurationError{Key: key, Reason: fmt.Sprintf("not a number: %q", raw)}
	}
	if d.IsNegative() || (bound == positive && d.IsZero()) {
		return decimal.Zero, &ConfigurationError{Key: key, Reason: fmt.Sprintf("out of range: %s", d)}
	}
	return d, nil
}

func parseInt(values map[string]string, key string, min int) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, &ConfigurationError{Key: key, Reason: "missing"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("not an integer: %q", raw)}
	}
	if n < min {
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("out of range: %d", n)}
	}
	return n, nil
}
